package integration_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ledgerly/pattern-engine-go/internal/domain"
	"github.com/ledgerly/pattern-engine-go/internal/handler"
	"github.com/ledgerly/pattern-engine-go/internal/infra/cache"
	"github.com/ledgerly/pattern-engine-go/internal/infra/observability"
	"github.com/ledgerly/pattern-engine-go/internal/infra/resilience"
	"github.com/ledgerly/pattern-engine-go/internal/infra/storeapi"
	"github.com/ledgerly/pattern-engine-go/internal/service"

	"go.uber.org/zap"
)

type storeRow struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Merchant  string  `json:"merchant"`
	Category  string  `json:"category"`
}

// mockStore is a minimal PostgREST-style store backend. It serves
// transaction rows and records every flag PATCH it receives.
type mockStore struct {
	mu      sync.Mutex
	rows    []storeRow
	patches []string // "column=value:id,id" per PATCH request
}

func (m *mockStore) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/transaction_users":
			seen := map[string]bool{}
			var users []map[string]string
			for _, row := range m.rows {
				if !seen[row.UserID] {
					seen[row.UserID] = true
					users = append(users, map[string]string{"user_id": row.UserID})
				}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(users)

		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/transactions":
			userID := strings.TrimPrefix(r.URL.Query().Get("user_id"), "eq.")
			var out []storeRow
			for _, row := range m.rows {
				if row.UserID == userID {
					out = append(out, row)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(out)

		case r.Method == http.MethodPatch && r.URL.Path == "/rest/v1/transactions":
			body, _ := io.ReadAll(r.Body)
			var payload map[string]bool
			json.Unmarshal(body, &payload)
			ids := strings.TrimSuffix(strings.TrimPrefix(r.URL.Query().Get("id"), "in.("), ")")
			for col, val := range payload {
				m.patches = append(m.patches, fmt.Sprintf("%s=%t:%s", col, val, ids))
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func buildRouter(t *testing.T, baseURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("integration")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := storeapi.NewClient(httpClient, baseURL, "test-key", "test-service-key", cb, cfg, logger)
	svc := service.NewDetectionService(
		store,
		cache.New[*domain.DetectionReport](5*time.Minute),
		metrics,
		logger,
		service.Options{},
	)
	return handler.NewRouter(svc, metrics, logger)
}

// TestIntegration_FullFlow runs a detection sweep against a mock store and
// verifies the recurring flags come back as PATCH writes.
func TestIntegration_FullFlow(t *testing.T) {
	day := func(daysAgo int) string {
		return time.Now().UTC().AddDate(0, 0, -daysAgo).Format("2006-01-02")
	}
	mock := &mockStore{rows: []storeRow{
		{ID: "tx-1", UserID: "user-1", AccountID: "checking", Amount: -15.99, Date: day(100), Merchant: "NETFLIX.COM", Category: "Streaming"},
		{ID: "tx-2", UserID: "user-1", AccountID: "checking", Amount: -15.99, Date: day(70), Merchant: "NETFLIX.COM", Category: "Streaming"},
		{ID: "tx-3", UserID: "user-1", AccountID: "checking", Amount: -15.99, Date: day(40), Merchant: "NETFLIX.COM", Category: "Streaming"},
		{ID: "tx-4", UserID: "user-1", AccountID: "checking", Amount: -15.99, Date: day(10), Merchant: "NETFLIX.COM", Category: "Streaming"},
	}}
	server := httptest.NewServer(mock.handler())
	defer server.Close()

	router := buildRouter(t, server.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/detections/sweep", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var report domain.SweepReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.Users != 1 {
		t.Errorf("users = %d, want 1", report.Users)
	}
	if report.Failed != 0 {
		t.Errorf("failed = %d, want 0", report.Failed)
	}
	if report.Groups != 1 {
		t.Errorf("groups = %d, want 1", report.Groups)
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	found := false
	for _, p := range mock.patches {
		if strings.HasPrefix(p, "is_recurring=true:") && strings.Contains(p, "tx-1") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an is_recurring=true PATCH for the subscription, got %v", mock.patches)
	}
}

// TestIntegration_StoreDown verifies store failures surface as 502 instead
// of hanging or leaking internals.
func TestIntegration_StoreDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	router := buildRouter(t, server.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/user-1/detections/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}
