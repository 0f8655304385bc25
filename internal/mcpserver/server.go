// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes oasprep capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/erraggy/oasprep"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `oasprep MCP server: prepares OpenAPI documents for the hey-api openapi-ts and Kubb code generators.

Tools:
- transform: run the preparation pipeline (strip /{apiVersion}, override servers[0].url, required-by-default, null normalization, schema removal) on a spec given as url, file, or inline content
- generator_config: return the Kubb and openapi-ts configurations, optionally reconciled with a transform run

Configuration: defaults are configurable via OASPREP_* environment variables set in your MCP client config.

Key settings:
- OASPREP_SERVER_URL (default: https://api.linode.com/v4/): URL written to servers[0].url
- OASPREP_PARAMETER (default: apiVersion): path parameter stripped from every path
- OASPREP_NULL_STYLE (default: auto): auto, type-array, nullable, or x-nullable
- OASPREP_DANGLING (default: error): error or prune, for references to removed schemas
- OASPREP_FETCH_TIMEOUT (default: 30s): timeout for URL specs
- OASPREP_ALLOW_PRIVATE_IPS (default: false): allow URL specs on private networks
- OASPREP_CACHE_ENABLED (default: true), OASPREP_CACHE_TTL (default: 5m): cache loaded specs`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasprep", Version: oasprep.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transform",
		Description: "Prepare an OpenAPI document for code generation. Runs, in order: strip-path-segment (remove /{apiVersion} from paths and its parameters), override-server-url, require-properties (list every non-nullable property as required), normalize-nullable, remove-schemas. Returns the fixes applied, renamed paths, removed schemas, and document stats. Use disabled_steps to skip steps, include_document to get the result inline, or output to write it to a file. Use offset/limit to paginate through fixes.",
	}, handleTransform)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generator_config",
		Description: "Return the default Kubb and openapi-ts generator configurations as JSON, with the zod symbol naming patterns rendered. When spec is given, the transform pipeline runs first and the configurations are reconciled with it: path excludes follow renamed paths and excludes for removed schemas are dropped. Set output_dir to write kubb.config.json and openapi-ts.config.json.",
	}, handleGeneratorConfig)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.FixLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.FixLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
