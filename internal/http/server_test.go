package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	tokens := auth.NewTokenManager(strings.Repeat("s", 32), "tally", time.Hour)
	accounts := services.NewAccountService(repo, repo)
	analytics := services.NewAnalyticsService(repo, repo)
	ledger := services.NewLedgerService(repo, repo).WithInvalidator(analytics)

	s := NewServer("127.0.0.1:0", accounts, ledger, analytics, tokens)
	t.Cleanup(func() { s.limiter.Stop() })
	return s
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func registerUser(t *testing.T, s *Server, username string) (token, userID string) {
	t.Helper()

	rec, env := doRequest(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token, session.UserID
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	registerUser(t, s, "alice")

	rec, _ := doRequest(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "password": "other-secret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidationStatus(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doRequest(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"username": "al", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec, _ := doRequest(t, s, http.MethodGet, "/api/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/expenses", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseCRUD(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerUser(t, s, "alice")

	rec, env := doRequest(t, s, http.MethodPost, "/api/expenses", token, map[string]string{
		"amount":   "42.50",
		"category": "Food & Dining",
		"date":     "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created expenseResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, int64(4250), created.AmountCents)
	assert.Equal(t, "42.50", created.Amount)

	rec, env = doRequest(t, s, http.MethodGet, "/api/expenses/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doRequest(t, s, http.MethodPut, "/api/expenses/"+created.ID, token, map[string]string{
		"description": "groceries",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated expenseResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "groceries", updated.Description)
	assert.Equal(t, int64(4250), updated.AmountCents)

	rec, env = doRequest(t, s, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []expenseResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	rec, _ = doRequest(t, s, http.MethodDelete, "/api/expenses/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/expenses/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseValidationStatus(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerUser(t, s, "alice")

	rec, _ := doRequest(t, s, http.MethodPost, "/api/expenses", token, map[string]string{
		"amount": "-5.00", "category": "Food & Dining", "date": "2024-01-15",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(t, s, http.MethodPost, "/api/expenses", token, map[string]string{
		"amount": "5.00", "category": "Food & Dining", "date": "not-a-date",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseOwnership(t *testing.T) {
	s := newTestServer(t)
	aliceToken, _ := registerUser(t, s, "alice")
	bobToken, _ := registerUser(t, s, "bob")

	_, env := doRequest(t, s, http.MethodPost, "/api/expenses", aliceToken, map[string]string{
		"amount": "10.00", "category": "Shopping", "date": "2024-02-01",
	})
	var created expenseResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	// Bob's token can neither read nor mutate Alice's expense.
	rec, _ := doRequest(t, s, http.MethodGet, "/api/expenses/"+created.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, s, http.MethodDelete, "/api/expenses/"+created.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = doRequest(t, s, http.MethodGet, "/api/expenses", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []expenseResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerUser(t, s, "alice")

	rec, env := doRequest(t, s, http.MethodGet, "/api/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []categoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	assert.Len(t, cats, len(core.DefaultCategories))

	rec, _ = doRequest(t, s, http.MethodPost, "/api/categories", token, map[string]string{
		"name": "Pets", "color": "#123456",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doRequest(t, s, http.MethodPost, "/api/categories", token, map[string]string{
		"name": "Pets",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerUser(t, s, "alice")

	today := core.Today().String()
	_, _ = doRequest(t, s, http.MethodPost, "/api/expenses", token, map[string]string{
		"amount": "12.00", "category": "Food & Dining", "date": today,
	})

	rec, env := doRequest(t, s, http.MethodGet, "/api/analytics/daily?days=30", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var points []timePointResponse
	require.NoError(t, json.Unmarshal(env.Data, &points))
	require.Len(t, points, 30)
	assert.Equal(t, today, points[29].Label)
	assert.Equal(t, int64(1200), points[29].TotalCents)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/analytics/daily?days=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = doRequest(t, s, http.MethodGet,
		"/api/analytics/categories?from=2000-01-01&to=2100-01-01", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var totals []categoryTotalResponse
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	require.Len(t, totals, 1)
	assert.Equal(t, "Food & Dining", totals[0].Name)
	assert.Equal(t, int64(1200), totals[0].TotalCents)

	rec, _ = doRequest(t, s, http.MethodGet,
		"/api/analytics/categories?from=2100-01-01&to=2000-01-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurrencyEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerUser(t, s, "alice")

	rec, env := doRequest(t, s, http.MethodGet, "/api/currency", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payload currencyPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "USD", payload.Currency)

	rec, _ = doRequest(t, s, http.MethodPut, "/api/currency", token, map[string]string{"currency": "EUR"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doRequest(t, s, http.MethodGet, "/api/currency", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "EUR", payload.Currency)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
