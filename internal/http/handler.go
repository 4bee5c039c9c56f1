package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// Handler handles HTTP requests.
type Handler struct {
	analysis *domain.AnalysisService
	balance  domain.BalanceService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(analysis *domain.AnalysisService, balance domain.BalanceService) *Handler {
	return &Handler{
		analysis: analysis,
		balance:  balance,
	}
}

type analyzeRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
	Model  string `json:"model,omitempty"` // registry alias, optional
}

type topUpRequest struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}

type balanceResponse struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleAnalyze processes analysis requests.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ctx = observability.WithUserID(ctx, req.UserID)

	logger := observability.FromContext(ctx)
	logger.Info("analysis request received",
		zap.String("model", req.Model),
		zap.Int("text_length", len(req.Text)),
	)

	result, err := h.analysis.Analyze(ctx, req.UserID, req.Text, req.Model)
	if err != nil {
		logger.Error("analysis failed", zap.Error(err))
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleBalance returns a user's token balance.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid user_id: %w", err))
		return
	}

	balance, err := h.balance.GetBalance(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{UserID: userID, Balance: balance})
}

// HandleTopUp credits tokens to a user's balance.
func (h *Handler) HandleTopUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	newBalance, err := h.balance.AddTokens(ctx, req.UserID, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{UserID: req.UserID, Balance: newBalance})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// statusFor maps the error taxonomy onto HTTP status codes for
// collaborators. Balance violations are 402, dead providers 503, and a
// provider that died mid-call 502.
func statusFor(err error) int {
	var (
		unsupported  *domain.UnsupportedProviderError
		unavailable  *domain.ProviderUnavailableError
		execution    *domain.ProviderExecutionError
		insufficient *domain.InsufficientBalanceError
		postHoc      *domain.PostHocInsufficientBalanceError
	)

	switch {
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNoDefaultModel),
		errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &insufficient), errors.As(err, &postHoc):
		return http.StatusPaymentRequired
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &execution):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it, nothing left to do.
		return
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
