package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rl1809/po-watcher/internal/core/domain"
	"github.com/rl1809/po-watcher/internal/core/service"
	"github.com/rl1809/po-watcher/internal/port"
)

const (
	defaultOutcomeLimit = 20
	maxOutcomeLimit     = 200
)

type StatusSource interface {
	Status() service.WatcherStatus
}

// HTTPHandler serves the watcher's status and, when a ledger is
// configured, the outcomes of processed messages.
type HTTPHandler struct {
	watcher StatusSource
	ledger  port.LedgerRepository
}

type OutcomeHTTPResponse struct {
	RunID       string    `json:"run_id"`
	MessageID   string    `json:"message_id"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status"`
	ItemCount   int       `json:"item_count"`
	FailedItems int       `json:"failed_items"`
	OrderID     string    `json:"order_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

type ErrorHTTPResponse struct {
	Message string `json:"message"`
}

func NewHTTPHandler(watcher StatusSource, ledger port.LedgerRepository) *HTTPHandler {
	return &HTTPHandler{watcher: watcher, ledger: ledger}
}

// Router wires the routes and wraps them with CORS, panic recovery and
// access logging to accessLog.
func (h *HTTPHandler) Router(accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/status", h.GetStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/outcomes", h.ListOutcomes).Methods(http.MethodGet)
	r.HandleFunc("/api/outcomes/{messageID}", h.GetOutcome).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)
	return handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(accessLog, cors(r)))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if !h.watcher.Status().Running {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "stopped"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.watcher.Status())
}

func (h *HTTPHandler) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeJSON(w, http.StatusNotFound, ErrorHTTPResponse{Message: "ledger not configured"})
		return
	}

	limit := defaultOutcomeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: "invalid limit"})
			return
		}
		limit = min(n, maxOutcomeLimit)
	}

	outcomes, err := h.ledger.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Message: "internal error"})
		return
	}

	resp := make([]OutcomeHTTPResponse, 0, len(outcomes))
	for _, o := range outcomes {
		resp = append(resp, toOutcomeResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) GetOutcome(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeJSON(w, http.StatusNotFound, ErrorHTTPResponse{Message: "ledger not configured"})
		return
	}

	messageID := mux.Vars(r)["messageID"]
	outcome, err := h.ledger.GetOutcome(r.Context(), messageID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Message: "internal error"})
		return
	}
	if outcome == nil {
		writeJSON(w, http.StatusNotFound, ErrorHTTPResponse{Message: "message not processed"})
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(*outcome))
}

func toOutcomeResponse(o domain.MessageOutcome) OutcomeHTTPResponse {
	return OutcomeHTTPResponse{
		RunID:       o.RunID,
		MessageID:   o.MessageID,
		Subject:     o.Subject,
		Status:      string(o.Status),
		ItemCount:   o.ItemCount,
		FailedItems: o.FailedItems,
		OrderID:     o.OrderID,
		Error:       o.Error,
		ProcessedAt: o.ProcessedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
