package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/agent"
	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/internal/storage"
	"github.com/young1lin/scout/pkg/logger"
)

// ResearchHandler serves the HTTP front-end for the research agent
type ResearchHandler struct {
	config *config.Config
	agent  *agent.Agent
	store  *storage.HistoryStore
}

// NewResearchHandler creates a new research handler
func NewResearchHandler(cfg *config.Config, a *agent.Agent, store *storage.HistoryStore) *ResearchHandler {
	return &ResearchHandler{
		config: cfg,
		agent:  a,
		store:  store,
	}
}

// researchRequest is the POST /v1/research body
type researchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// researchResponse wraps stored findings with their ID
type researchResponse struct {
	ID       string                   `json:"id"`
	Findings *models.ResearchFindings `json:"findings"`
}

// ServeHTTP handles all HTTP requests
func (h *ResearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	traceID := extractTraceID(r)
	if traceID == "" {
		traceID = generateTraceID()
	}

	ctx := logger.ContextWithTraceID(r.Context(), traceID)
	r = r.WithContext(ctx)

	log := logger.WithTraceID(traceID)
	log.Info("request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)

	w.Header().Set("X-Trace-ID", traceID)

	switch {
	case r.URL.Path == "/health":
		h.handleHealth(w, r)
	case r.URL.Path == "/v1/research" && r.Method == http.MethodPost:
		h.handleResearch(w, r, log)
	case strings.HasPrefix(r.URL.Path, "/v1/research/") && r.Method == http.MethodGet:
		id := strings.TrimPrefix(r.URL.Path, "/v1/research/")
		h.handleGetFindings(w, r, id, log)
	default:
		h.handleError(w, http.StatusNotFound, "not_found", "Endpoint not found", log)
	}

	log.Info("request completed",
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// handleHealth handles health check requests
func (h *ResearchHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleResearch runs a research request and stores the findings
func (h *ResearchHandler) handleResearch(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, http.StatusBadRequest, "invalid_request", "Request body is not valid JSON", log)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.handleError(w, http.StatusBadRequest, "invalid_request", "query is required", log)
		return
	}

	findings, err := h.agent.Research(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		log.Error("research failed", zap.Error(err))
		h.handleError(w, http.StatusBadGateway, "research_error", err.Error(), log)
		return
	}

	id := generateResearchID()
	if h.store != nil {
		if err := h.store.Put(id, findings); err != nil {
			// Storage failure should not lose the findings we already have
			log.Warn("failed to persist findings", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(researchResponse{ID: id, Findings: findings})
}

// handleGetFindings retrieves stored findings by ID
func (h *ResearchHandler) handleGetFindings(w http.ResponseWriter, r *http.Request, id string, log *zap.Logger) {
	if h.store == nil {
		h.handleError(w, http.StatusNotFound, "not_found", "History is not enabled", log)
		return
	}

	findings, ok := h.store.Get(id)
	if !ok {
		h.handleError(w, http.StatusNotFound, "not_found", "Findings not found", log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(researchResponse{ID: id, Findings: findings})
}

// handleError writes an error response
func (h *ResearchHandler) handleError(w http.ResponseWriter, status int, errType, message string, log *zap.Logger) {
	log.Warn("request error",
		zap.Int("status", status),
		zap.String("type", errType),
		zap.String("message", message),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.ErrorDetail{
			Type:    errType,
			Message: message,
		},
	})
}

// extractTraceID checks common trace headers
func extractTraceID(r *http.Request) string {
	for _, header := range []string{"X-Trace-ID", "X-Request-ID", "Trace-ID"} {
		if v := r.Header.Get(header); v != "" {
			return v
		}
	}
	return ""
}

func generateTraceID() string {
	return uuid.New().String()[:8]
}

func generateResearchID() string {
	return "res_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
