package mcp

import (
	"net/http"
	"sync/atomic"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/config"
	"github.com/bobmcallan/calc-portal/internal/dispatch"
	"github.com/bobmcallan/calc-portal/internal/registry"
)

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and swaps in a freshly built server
// whenever the registry reloads.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	logger     *common.Logger
	current    atomic.Pointer[built]
}

type built struct {
	mcp        *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
}

// NewHandler builds an MCP server from reg's current snapshot and subscribes
// to reg's reloads.
func NewHandler(reg *registry.Registry, d *dispatch.Dispatcher, logger *common.Logger) *Handler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	h := &Handler{dispatcher: d, logger: logger}
	h.Rebuild(reg.Current())
	reg.OnReload(h.Rebuild)
	return h
}

// Rebuild replaces the served MCP server with one exposing snap's tools.
// In-flight requests finish on the server they started with.
func (h *Handler) Rebuild(snap *registry.Snapshot) {
	mcpSrv := mcpserver.NewMCPServer(
		"calc-portal",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	var toolCount int
	var generation uint64
	if snap != nil {
		toolCount = RegisterTools(mcpSrv, h.dispatcher, snap)
		generation = snap.Generation
	}
	mcpSrv.AddTool(VersionTool(), VersionToolHandler(snap))

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)
	h.current.Store(&built{mcp: mcpSrv, streamable: streamable})

	h.logger.Info().
		Int("tools", toolCount).
		Int64("generation", int64(generation)).
		Msg("MCP handler initialized")
}

// Server returns the MCP server currently being served.
func (h *Handler) Server() *mcpserver.MCPServer {
	return h.current.Load().mcp
}

// ServeHTTP delegates to the current StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.current.Load().streamable.ServeHTTP(w, r)
}
