package ratequote

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Handler exposes the read-only rates endpoint.
type Handler struct {
	service *RateQuoteService
}

// NewHandler creates a rates handler.
func NewHandler(service *RateQuoteService) *Handler {
	return &Handler{service: service}
}

// Routes registers the rates endpoint on a router
func (h *Handler) Routes(r chi.Router) {
	r.Get("/rates", h.GetRates)
}

// RatesResponse is the response body for GET /rates.
type RatesResponse struct {
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Cached    bool               `json:"cached"`
}

// GetRates handles GET /rates?symbols=bitcoin,ethereum&vs=usd.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	symbolsParam := r.URL.Query().Get("symbols")
	if symbolsParam == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "symbols query parameter is required"})
		return
	}
	symbols := strings.Split(symbolsParam, ",")

	vs := r.URL.Query().Get("vs")
	if vs == "" {
		vs = "usd"
	}

	quote, cached, err := h.service.GetQuote(r.Context(), symbols, vs)
	if err != nil {
		slog.Error("Failed to get rate quote", "error", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, map[string]string{"error": "Rate provider unavailable. Please try again."})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RatesResponse{
		Rates:     quote.Rates,
		FetchedAt: quote.FetchedAt,
		Cached:    cached,
	})
}
