package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/webformat"
)

// RunSource returns the run the API should present.
type RunSource func() *models.RunResult

type Handlers struct {
	source RunSource
	logger *slog.Logger
}

func NewHandlers(source RunSource, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		source: source,
		logger: logger.With("component", "api"),
	}
}

// FileSource reads the run result file on every call so the API always shows
// the latest collection run.
func FileSource(path string, logger *slog.Logger) RunSource {
	return func() *models.RunResult {
		return webformat.LoadRun(path, logger)
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	run := h.source()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"niche":          run.Niche,
		"total_products": len(run.Products),
		"timestamp":      run.Timestamp,
	})
}

// ListProducts returns the full fragment set: metadata, cards and details.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	set, err := webformat.Build(h.source())
	if err != nil {
		h.logger.Error("failed to build fragment set", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to render products")
		return
	}
	h.respondJSON(w, http.StatusOK, set)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	set, err := webformat.Build(h.source())
	if err != nil {
		h.logger.Error("failed to build fragment set", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to render products")
		return
	}

	detail, ok := set.ProductDetails[id]
	if !ok {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}
	h.respondJSON(w, http.StatusOK, detail)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
