package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/balance"
	"github.com/davidbz/howl/internal/domain"
	howlhttp "github.com/davidbz/howl/internal/http"
	"github.com/davidbz/howl/internal/ledger/memory"
)

type fakeClient struct {
	providerType domain.ProviderType
	model        string
	response     *domain.GenerateResponse
	err          error
}

func (f *fakeClient) Generate(_ context.Context, _ *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeClient) Type() domain.ProviderType { return f.providerType }
func (f *fakeClient) Model() string             { return f.model }

type fakeRegistry struct {
	client domain.ProviderClient
	err    error
}

func (f *fakeRegistry) AddModel(_ context.Context, _, _, _ string, _ bool) (domain.ProviderClient, error) {
	return f.client, f.err
}

func (f *fakeRegistry) GetModel(_ context.Context, _ string) (domain.ProviderClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

type fixedEstimator struct{ tokens int64 }

func (f fixedEstimator) Estimate(_ string) int64 { return f.tokens }

// newHandler wires a handler over the in-memory ledger with a scripted
// registry, the way the server wires the real ones.
func newHandler(registry domain.ModelRegistry, defaultTokens int64, estimate int64) *howlhttp.Handler {
	balanceService := balance.NewService(memory.NewStore(defaultTokens))
	analysis := domain.NewAnalysisService(registry, balanceService, fixedEstimator{tokens: estimate}, nil)
	return howlhttp.NewHandler(analysis, balanceService)
}

func TestHandler_HandleAnalyze(t *testing.T) {
	t.Run("should return the analysis result", func(t *testing.T) {
		registry := &fakeRegistry{client: &fakeClient{
			providerType: domain.ProviderOpenAI,
			model:        "gpt-4o-mini",
			response: &domain.GenerateResponse{
				Content: "summary",
				Usage:   domain.Usage{TotalTokens: 55},
			},
		}}
		handler := newHandler(registry, 1000, 40)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"user_id": 1, "text": "please analyze this"}`))

		handler.HandleAnalyze(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)

		var result domain.AnalysisResult
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&result))
		require.Equal(t, "summary", result.OutputText)
		require.Equal(t, int64(55), result.TokensUsed)
		require.Equal(t, int64(945), result.NewBalance)
		require.Equal(t, domain.ProviderOpenAI, result.ResolvedProvider)
	})

	t.Run("should reject a non-POST method", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 1000, 40)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/v1/analyze", nil)

		handler.HandleAnalyze(recorder, request)

		require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 1000, 40)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader("{not json"))

		handler.HandleAnalyze(recorder, request)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("should reject empty input with 400", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 1000, 40)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"user_id": 1, "text": "   "}`))

		handler.HandleAnalyze(recorder, request)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("should map an uncovered estimate to 402", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 10, 40)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"user_id": 1, "text": "long request"}`))

		handler.HandleAnalyze(recorder, request)

		require.Equal(t, http.StatusPaymentRequired, recorder.Code)
	})

	t.Run("should map an exhausted provider chain to 503", func(t *testing.T) {
		registry := &fakeRegistry{err: &domain.ProviderUnavailableError{
			Requested: domain.ProviderGigaChat,
			Attempted: []domain.ProviderType{domain.ProviderGigaChat, domain.ProviderOpenAI},
		}}
		handler := newHandler(registry, 1000, 40)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"user_id": 1, "text": "analyze"}`))

		handler.HandleAnalyze(recorder, request)

		require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	})

	t.Run("should map a failed generation to 502", func(t *testing.T) {
		registry := &fakeRegistry{client: &fakeClient{
			providerType: domain.ProviderOllama,
			err: &domain.ProviderExecutionError{
				Provider: domain.ProviderOllama,
				Err:      context.DeadlineExceeded,
			},
		}}
		handler := newHandler(registry, 1000, 40)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"user_id": 1, "text": "analyze"}`))

		handler.HandleAnalyze(recorder, request)

		require.Equal(t, http.StatusBadGateway, recorder.Code)
	})
}

func TestHandler_HandleBalance(t *testing.T) {
	t.Run("should return the balance", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 750, 10)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/v1/balance?user_id=3", nil)

		handler.HandleBalance(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)

		var body struct {
			UserID  int64 `json:"user_id"`
			Balance int64 `json:"balance"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		require.Equal(t, int64(3), body.UserID)
		require.Equal(t, int64(750), body.Balance)
	})

	t.Run("should reject a missing user_id", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 750, 10)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/v1/balance", nil)

		handler.HandleBalance(recorder, request)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestHandler_HandleTopUp(t *testing.T) {
	t.Run("should credit and return the new balance", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 100, 10)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/balance/topup",
			strings.NewReader(`{"user_id": 5, "amount": 250}`))

		handler.HandleTopUp(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)

		var body struct {
			Balance int64 `json:"balance"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		require.Equal(t, int64(350), body.Balance)
	})

	t.Run("should reject a non-positive amount", func(t *testing.T) {
		handler := newHandler(&fakeRegistry{}, 100, 10)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/balance/topup",
			strings.NewReader(`{"user_id": 5, "amount": 0}`))

		handler.HandleTopUp(recorder, request)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestHandler_HandleHealth(t *testing.T) {
	handler := newHandler(&fakeRegistry{}, 100, 10)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.HandleHealth(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status": "healthy"}`, recorder.Body.String())
}
