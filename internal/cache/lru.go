// Package cache provides caching utilities for the MCP server.
package cache

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaCache provides thread-safe LRU caching of compiled JSON Schemas,
// keyed by the Go type they were reflected from.
type SchemaCache struct {
	cache *lru.Cache[reflect.Type, *jsonschema.Schema]
}

// NewSchemaCache creates a new LRU cache with the specified maximum number of items.
func NewSchemaCache(maxItems int) (*SchemaCache, error) {
	c, err := lru.New[reflect.Type, *jsonschema.Schema](maxItems)
	if err != nil {
		return nil, err
	}
	return &SchemaCache{cache: c}, nil
}

// Get retrieves the compiled schema for t.
// Returns the schema and true if found, nil and false otherwise.
func (c *SchemaCache) Get(t reflect.Type) (*jsonschema.Schema, bool) {
	return c.cache.Get(t)
}

// Put adds or updates the schema for t.
func (c *SchemaCache) Put(t reflect.Type, sch *jsonschema.Schema) {
	c.cache.Add(t, sch)
}

// Len returns the current number of items in the cache.
func (c *SchemaCache) Len() int {
	return c.cache.Len()
}
