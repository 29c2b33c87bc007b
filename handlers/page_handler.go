package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finnduel-overlay-backend/models"
	"finnduel-overlay-backend/services"
	"finnduel-overlay-backend/utils"
)

//go:embed templates/overlay.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"formatClock": utils.FormatClock,
	"upper": func(s string) string {
		// Casers are stateful, so each call gets its own.
		return cases.Upper(language.English).String(s)
	},
}

var overlayTemplate = template.Must(template.New("overlay.html").Funcs(pageFuncs).ParseFS(templateFS, "templates/overlay.html"))

// PageHandler renders the overlay page
type PageHandler struct {
	marketService *services.MarketService
	stateService  *services.StateService
}

// NewPageHandler creates a new page handler
func NewPageHandler(marketService *services.MarketService, stateService *services.StateService) *PageHandler {
	return &PageHandler{
		marketService: marketService,
		stateService:  stateService,
	}
}

type overlayPage struct {
	Title      string
	Subtitle   string
	Categories []models.Category
	Snapshot   models.Snapshot
}

// ServeOverlay handles GET /
func (h *PageHandler) ServeOverlay(w http.ResponseWriter, r *http.Request) {
	overlay := h.marketService.Overlay()
	data := overlayPage{
		Title:      overlay.Title,
		Subtitle:   overlay.Subtitle,
		Categories: overlay.Categories,
		Snapshot:   h.stateService.GetState(),
	}

	var buf bytes.Buffer
	if err := overlayTemplate.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("ServeOverlay: failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}
