// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the vault metadata index to LLM clients via stdio transport.
// Every tool is read-only: the editor session is the only writer.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/index"
)

const tagsResourceURI = "vaultedit://tags"

// DefaultLimit caps autocomplete results when the client passes none.
const DefaultLimit = 20

// Server wraps the MCP server with the index tools.
type Server struct {
	mcp   *server.MCPServer
	store index.Store
}

// New creates a new MCP server with all index tools registered.
func New(store index.Store, version string) *Server {
	s := &Server{store: store}

	s.mcp = server.NewMCPServer(
		"vaultedit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List every indexed Markdown file with its display name."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("query_tags",
		mcp.WithDescription("List tags starting with a prefix (case-insensitive)."),
		mcp.WithString("prefix", mcp.Description("Tag prefix without '#'; empty lists all tags")),
	), s.queryTags)

	s.mcp.AddTool(mcp.NewTool("files_with_tag",
		mcp.WithDescription("List the files carrying a tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name, with or without '#'")),
	), s.filesWithTag)

	s.mcp.AddTool(mcp.NewTool("backlinks",
		mcp.WithDescription("Find all files that link to the given file via [[wikilinks]]."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (e.g. notes/plan.md)")),
	), s.backlinks)

	s.mcp.AddTool(mcp.NewTool("outgoing_links",
		mcp.WithDescription("List the [[wikilinks]] a file contains and whether each resolves."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path")),
	), s.outgoingLinks)

	s.mcp.AddTool(mcp.NewTool("autocomplete",
		mcp.WithDescription("Rank tag or file-name completions for a prefix the way the editor does."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum(string(index.KindTag), string(index.KindFile))),
		mcp.WithString("prefix", mcp.Description("Typed prefix")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of candidates")),
	), s.autocomplete)

	s.mcp.AddResource(
		mcp.NewResource(tagsResourceURI, "Vault tags",
			mcp.WithResourceDescription("Every tag in the vault with the number of files carrying it."),
			mcp.WithMIMEType("application/json"),
		),
		s.readTagsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.store.ListFiles()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lines = append(lines, f.Path)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) queryTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := strings.TrimPrefix(req.GetString("prefix", ""), "#")
	tags, err := s.store.QueryTags(prefix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	return mcp.NewToolResultText(strings.Join(tags, "\n")), nil
}

func (s *Server) filesWithTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.store.FilesWithTag(strings.TrimPrefix(tag, "#"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(files)
}

func (s *Server) backlinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.store.BacklinksToPath(path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not indexed: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

type linkView struct {
	Target   string `json:"target"`
	Resolved string `json:"resolved,omitempty"`
}

func (s *Server) outgoingLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.store.FileByPath(path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not indexed: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.store.OutgoingLinks(f.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	byID := make(map[int64]string)
	if all, err := s.store.ListFiles(); err == nil {
		for _, other := range all {
			byID[other.ID] = other.Path
		}
	}
	out := make([]linkView, 0, len(links))
	for _, l := range links {
		v := linkView{Target: l.TargetName}
		if !l.Dangling() {
			v.Resolved = byID[*l.ResolvedFileID]
		}
		out = append(out, v)
	}
	return jsonResult(out)
}

func (s *Server) autocomplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", DefaultLimit)
	cands, err := s.store.QueryAutocompleteCandidates(index.Kind(kind), req.GetString("prefix", ""), limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cands)
}

func (s *Server) readTagsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tags, err := s.store.AllTags()
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      tagsResourceURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
