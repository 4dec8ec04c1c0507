package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/config"
	"github.com/bobmcallan/calc-portal/internal/registry"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler serves HTML pages rendered with Go templates.
type PageHandler struct {
	logger    *common.Logger
	registry  *registry.Registry
	templates *template.Template
	mcp       bool
}

// NewPageHandler creates a page handler. mcp controls whether the index page
// advertises the /mcp endpoint.
func NewPageHandler(logger *common.Logger, reg *registry.Registry, mcp bool) *PageHandler {
	return &PageHandler{
		logger:    logger,
		registry:  reg,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		mcp:       mcp,
	}
}

// Index handles GET /, the tool index page.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var tools []*registry.ToolSpec
	if snap := h.registry.Current(); snap != nil {
		tools = snap.List()
	}

	data := map[string]interface{}{
		"Page":    "home",
		"Tools":   tools,
		"MCP":     h.mcp,
		"Version": config.GetVersion(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		if h.logger != nil {
			h.logger.Error().Str("template", "index.html").Err(err).Msg("failed to render page")
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
