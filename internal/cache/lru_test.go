package cache

import (
	"reflect"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCache_Evicts(t *testing.T) {
	c, err := NewSchemaCache(2)
	require.NoError(t, err)

	a, b, d := reflect.TypeFor[int](), reflect.TypeFor[string](), reflect.TypeFor[bool]()
	c.Put(a, &jsonschema.Schema{})
	c.Put(b, &jsonschema.Schema{})
	_, ok := c.Get(a)
	require.True(t, ok)

	c.Put(d, &jsonschema.Schema{})
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(b)
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get(a)
	assert.True(t, ok)
}

func TestNewSchemaCache_InvalidSize(t *testing.T) {
	_, err := NewSchemaCache(0)
	assert.Error(t, err)
}
