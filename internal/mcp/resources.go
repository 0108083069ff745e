package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/devtools-mcp/internal/mcp/tools"
)

// Resource URI scheme: devtools://
// Supported URIs:
//   devtools://catalog
//   devtools://schema/{result_type}

const (
	resourceScheme = "devtools://"
	mimeJSON       = "application/json"
)

// catalogEntry is one row of the devtools://catalog resource.
type catalogEntry struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// registerResources registers the catalog resource and the schema template.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         resourceScheme + "catalog",
		Name:        "Tool Catalog",
		Description: "Every CLI tool this server knows, with its group and whether the current tool policy enables it.",
		MIMEType:    mimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceCatalog)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: resourceScheme + "schema/{result_type}",
		Name:        "Result Schema",
		Description: "JSON Schema of a registered result type: an anyOf over the full record and the compact summary. Tools already advertise it as their output schema; fetch it when you need it outside tools/list.",
		MIMEType:    mimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceSchema)
}

func (s *Server) handleResourceCatalog(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	statuses := tools.CatalogStatus(s.deps.Config)
	out := make([]catalogEntry, len(statuses))
	for i, t := range statuses {
		out[i] = catalogEntry{Name: t.Name, Group: t.Group, Description: t.Description, Enabled: t.Enabled}
	}
	return toResourceResult(req.Params.URI, out)
}

func (s *Server) handleResourceSchema(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}
	doc, err := s.deps.Schemas.OutputSchema(params["result_type"])
	if err != nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	return toResourceResult(req.Params.URI, doc)
}

// parseResourceURI extracts parameters from a devtools:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected " + resourceScheme)
	}
	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")

	params := make(map[string]string)
	switch parts[0] {
	case "catalog":
	case "schema":
		if len(parts) != 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("schema URI requires a result type")
		}
		params["result_type"] = parts[1]
	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}
	params["type"] = parts[0]
	return params, nil
}

// toResourceResult converts content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
