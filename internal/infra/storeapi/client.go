// Package storeapi provides a client for the transaction store service
// (PostgREST-style REST API). It is the production implementation of
// port.TransactionStore: the detection engine stays pure and this adapter
// carries all the I/O.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerly/pattern-engine-go/internal/domain"
	"github.com/ledgerly/pattern-engine-go/internal/infra/resilience"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("storeapi")

const dateLayout = "2006-01-02"

// Client wraps HTTP calls to the transaction store REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	serviceKey string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a transaction store client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		serviceKey: serviceKey,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// doRequest executes an authenticated request against the store API.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.logger.Error("store: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("store: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("store: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("store: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, fmt.Errorf("store returned status %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Debug("store: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return respBody, nil
}

// execute runs fn behind the circuit breaker with retries.
func (c *Client) execute(ctx context.Context, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &domain.ErrCircuitOpen{Service: "store"}
	}
	return err
}

// storeTransaction maps store table columns to our domain.
type storeTransaction struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	AccountID          string          `json:"account_id"`
	Amount             decimal.Decimal `json:"amount"`
	Date               string          `json:"date"`
	Merchant           string          `json:"merchant"`
	Category           string          `json:"category"`
	IsTransfer         bool            `json:"is_transfer"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringDismissed bool            `json:"recurring_dismissed"`
	UserModified       bool            `json:"user_modified"`
}

func (s storeTransaction) toDomain() (*domain.Transaction, error) {
	date, err := time.ParseInLocation(dateLayout, s.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction date %q: %w", s.Date, err)
	}
	return &domain.Transaction{
		ID:                 s.ID,
		UserID:             s.UserID,
		AccountID:          s.AccountID,
		Amount:             s.Amount,
		Date:               date,
		Merchant:           s.Merchant,
		Category:           s.Category,
		IsTransfer:         s.IsTransfer,
		IsRecurring:        s.IsRecurring,
		RecurringDismissed: s.RecurringDismissed,
		UserModified:       s.UserModified,
	}, nil
}

// ListUserIDs fetches every user with transactions on record.
func (c *Client) ListUserIDs(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Store.ListUserIDs")
	defer span.End()

	var ids []string
	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "transaction_users?select=user_id", nil)
		if err != nil {
			return err
		}
		if body == nil {
			ids = nil
			return nil
		}

		var rows []struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode user ids: %w", err)
		}
		ids = ids[:0]
		for _, r := range rows {
			ids = append(ids, r.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "store", Err: err}
	}
	span.SetAttributes(attribute.Int("users.count", len(ids)))
	return ids, nil
}

// ListTransactions fetches one user's transactions with dates in [from, to].
func (c *Client) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Store.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("transactions?user_id=eq.%s&date=gte.%s&date=lte.%s&order=date.asc",
		userID, from.Format(dateLayout), to.Format(dateLayout))

	var txns []*domain.Transaction
	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if body == nil {
			txns = nil
			return nil
		}

		var rows []storeTransaction
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode transactions: %w", err)
		}
		txns = txns[:0]
		for _, r := range rows {
			tx, err := r.toDomain()
			if err != nil {
				// A malformed row is logged, not fatal.
				c.logger.Warn("store: skipping malformed transaction",
					zap.String("id", r.ID),
					zap.Error(err),
				)
				continue
			}
			txns = append(txns, tx)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "store", Err: err}
	}
	span.SetAttributes(attribute.Int("transactions.count", len(txns)))
	return txns, nil
}

// SetRecurringFlags persists recurring flag changes.
func (c *Client) SetRecurringFlags(ctx context.Context, set, clear []string) error {
	ctx, span := tracer.Start(ctx, "Store.SetRecurringFlags")
	defer span.End()
	span.SetAttributes(
		attribute.Int("flags.set", len(set)),
		attribute.Int("flags.clear", len(clear)),
	)

	if err := c.patchFlag(ctx, set, "is_recurring", true); err != nil {
		return err
	}
	return c.patchFlag(ctx, clear, "is_recurring", false)
}

// SetTransferFlags marks the given transactions as transfers.
func (c *Client) SetTransferFlags(ctx context.Context, ids []string) error {
	ctx, span := tracer.Start(ctx, "Store.SetTransferFlags")
	defer span.End()
	span.SetAttributes(attribute.Int("flags.set", len(ids)))

	return c.patchFlag(ctx, ids, "is_transfer", true)
}

// patchFlag writes one boolean column for a batch of transaction IDs.
func (c *Client) patchFlag(ctx context.Context, ids []string, column string, value bool) error {
	if len(ids) == 0 {
		return nil
	}

	path := fmt.Sprintf("transactions?id=in.(%s)", strings.Join(ids, ","))
	payload := map[string]bool{column: value}

	err := c.execute(ctx, func() error {
		_, err := c.doRequest(ctx, http.MethodPatch, path, payload)
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "store", Err: err}
	}
	return nil
}
