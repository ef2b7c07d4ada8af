package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/yair/gigscout/pkg/domain"
	"github.com/yair/gigscout/pkg/integrations"
)

// AggregatorService is the part of the concert aggregator exposed over HTTP.
type AggregatorService interface {
	SearchArtists(ctx context.Context, term string, limit int) (*domain.ArtistSearchResponse, error)
	PopularArtists(ctx context.Context, size int) (*domain.ArtistSearchResponse, error)
	SearchEventsCombined(ctx context.Context, performer, providerArtistID string, limit int) (*domain.EventSearchResponse, error)
	SearchEventsByLocation(ctx context.Context, location, performer string, limit int) (*domain.EventSearchResponse, error)
	ExtractEventFromURL(ctx context.Context, pageURL string) (*domain.Event, error)
	GetSourceStats() map[string]integrations.SourceInfo
	ClearLocalCache() int
}

type AggregatorHandler struct {
	aggregator AggregatorService
	logger     *slog.Logger
}

func NewAggregatorHandler(aggregator AggregatorService, logger *slog.Logger) *AggregatorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregatorHandler{
		aggregator: aggregator,
		logger:     logger,
	}
}

func (h *AggregatorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/artists/search", h.SearchArtists).Methods("GET")
	router.HandleFunc("/api/artists/popular", h.PopularArtists).Methods("GET")
	router.HandleFunc("/api/events/search", h.SearchEvents).Methods("GET")
	router.HandleFunc("/api/events/location", h.SearchEventsByLocation).Methods("GET")
	router.HandleFunc("/api/events/extract", h.ExtractEvent).Methods("GET")
	router.HandleFunc("/api/sources", h.GetSources).Methods("GET")
	router.HandleFunc("/api/cache/local", h.ClearLocalCache).Methods("DELETE")
	router.HandleFunc("/health", h.Health).Methods("GET")
}

// NewRouter wires the API routes, request logging and, when metricsHandler
// is non-nil, the /metrics endpoint.
func NewRouter(handler *AggregatorHandler, metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(handler.logRequests)
	handler.RegisterRoutes(router)
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}
	return router
}

func (h *AggregatorHandler) SearchArtists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	results, err := h.aggregator.SearchArtists(r.Context(), query, parseLimit(r))
	if err != nil {
		h.writeError(w, "failed to search artists", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, results)
}

func (h *AggregatorHandler) PopularArtists(w http.ResponseWriter, r *http.Request) {
	results, err := h.aggregator.PopularArtists(r.Context(), parseLimit(r))
	if err != nil {
		h.writeError(w, "failed to load popular artists", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, results)
}

func (h *AggregatorHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	artistName := r.URL.Query().Get("artist")
	if artistName == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "query parameter 'artist' is required")
		return
	}
	artistID := r.URL.Query().Get("artist_id")

	results, err := h.aggregator.SearchEventsCombined(r.Context(), artistName, artistID, parseLimit(r))
	if err != nil {
		h.writeError(w, "failed to search events", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, results)
}

func (h *AggregatorHandler) SearchEventsByLocation(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "query parameter 'location' is required")
		return
	}
	artistName := r.URL.Query().Get("artist")

	results, err := h.aggregator.SearchEventsByLocation(r.Context(), location, artistName, parseLimit(r))
	if err != nil {
		h.writeError(w, "failed to search events by location", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, results)
}

func (h *AggregatorHandler) ExtractEvent(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "query parameter 'url' is required")
		return
	}

	event, err := h.aggregator.ExtractEventFromURL(r.Context(), pageURL)
	if err != nil {
		h.writeError(w, "failed to extract event", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, ExtractResponse{Event: event})
}

func (h *AggregatorHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	sources := h.aggregator.GetSourceStats()

	response := SourcesResponse{
		Sources: sources,
		Total:   len(sources),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// ClearLocalCache drops this process's local tier. The shared persistent
// cache is not touched.
func (h *AggregatorHandler) ClearLocalCache(w http.ResponseWriter, r *http.Request) {
	cleared := h.aggregator.ClearLocalCache()
	h.writeJSONResponse(w, http.StatusOK, CacheClearResponse{Cleared: cleared})
}

func (h *AggregatorHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AggregatorHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// parseLimit returns 0 for a missing or unusable limit; the aggregator
// applies its own default and cap.
func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *AggregatorHandler) writeError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(action, "error", err)
	} else {
		h.logger.Warn(action, "error", err)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = action
	}
	h.writeErrorResponse(w, status, message)
}

func (h *AggregatorHandler) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	// Try to encode first to check for errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	w.Write(encoded)
}

func (h *AggregatorHandler) writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := ErrorResponse{
		Error:  message,
		Status: status,
	}

	json.NewEncoder(w).Encode(response)
}

type SourcesResponse struct {
	Sources map[string]integrations.SourceInfo `json:"sources"`
	Total   int                                `json:"total"`
}

type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}

type ExtractResponse struct {
	Event *domain.Event `json:"event"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}
