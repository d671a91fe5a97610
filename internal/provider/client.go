package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/betting-ledger/internal/config"
	"github.com/betting-ledger/internal/domain/apilog"
	"github.com/betting-ledger/internal/domain/credential"
	"github.com/google/uuid"
)

// Calls are issued from this process, so the log records the local origin.
const callOriginAddress = "localhost"

// CallLogger records the terminal outcome of each provider call.
// Implementations are best-effort and must not fail the calling operation,
// but the write completes before the call returns.
type CallLogger interface {
	Record(ctx context.Context, entry *apilog.Entry)
}

// Client issues signed requests to the betting provider, retrying transient
// failures with exponential backoff and tripping the circuit breaker when a
// call's retry budget is exhausted.
type Client struct {
	logger      *slog.Logger
	httpClient  *http.Client
	baseURL     string
	attempts    int
	backoff     time.Duration
	breaker     *CircuitBreaker
	credentials credential.Repository
	callLog     CallLogger
}

// NewClient creates a provider client. The breaker is injected so callers
// sharing a provider share its failure state.
func NewClient(
	logger *slog.Logger,
	cfg *config.ProviderConfig,
	credentials credential.Repository,
	breaker *CircuitBreaker,
	callLog CallLogger,
) *Client {
	return &Client{
		logger:      logger,
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:     cfg.BaseURL,
		attempts:    cfg.RetryAttempts,
		backoff:     cfg.RetryBackoff,
		breaker:     breaker,
		credentials: credentials,
		callLog:     callLog,
	}
}

// Call issues a signed request to the provider on behalf of userID.
//
// Failure modes, in gate order: ErrCircuitOpen while the breaker cooldown is
// running (no network attempt, nothing logged), ErrAccountNotConfigured when
// the user has no credential (likewise nothing logged), and *UpstreamError
// once retries are exhausted or a non-retryable 4xx is seen, which also trips
// the breaker. Exactly one log entry is written per terminal outcome, with
// duration measured from the first attempt.
func (c *Client) Call(ctx context.Context, method, endpoint string, userID int64, body any) (*Response, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	cred, err := c.credentials.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, credential.ErrCredentialNotFound{}) {
			return nil, ErrAccountNotConfigured{UserID: userID}
		}
		return nil, fmt.Errorf("failed to load provider credential: %w", err)
	}

	payload, err := canonicalPayload(body)
	if err != nil {
		return nil, err
	}
	signature := signPayload(payload, cred.SecretKey)

	start := time.Now()
	var resp *Response
	var lastErr *UpstreamError
	backoff := c.backoff

	for attempt := 1; attempt <= c.attempts; attempt++ {
		resp, lastErr = c.doAttempt(ctx, method, endpoint, cred.ExternalID, signature, payload)
		if lastErr == nil {
			break
		}
		if !lastErr.Retryable() {
			c.logger.Warn("Provider rejected request",
				"endpoint", endpoint, "status", lastErr.StatusCode, "user_id", userID)
			break
		}
		if attempt == c.attempts {
			break
		}

		c.logger.Warn("Provider call failed, retrying",
			"endpoint", endpoint, "attempt", attempt, "backoff", backoff.String(),
			"status", lastErr.StatusCode, "error", lastErr.Err)
		if err := sleep(ctx, backoff); err != nil {
			// Caller gave up; the last attempt's failure stands.
			break
		}
		backoff *= 2
	}

	duration := time.Since(start)

	if lastErr == nil {
		c.recordCall(ctx, userID, method, endpoint, payload, resp.Body, resp.StatusCode, duration)
		return resp, nil
	}

	c.recordCall(ctx, userID, method, endpoint, payload, lastErr.Body, lastErr.StatusCode, duration)
	c.breaker.Trip()
	c.logger.Error("Provider call failed",
		"endpoint", endpoint, "user_id", userID, "status", lastErr.StatusCode, "error", lastErr)
	return nil, lastErr
}

// Health probes the provider's health endpoint. Unsigned, no credential, no
// call log; used by the service health check only.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build provider health request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider health check failed: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("provider health check returned status %d", res.StatusCode)
	}
	return nil
}

func (c *Client) doAttempt(ctx context.Context, method, endpoint, externalID, signature string, payload []byte) (*Response, *UpstreamError) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("user-id", externalID)
	req.Header.Set("x-signature", signature)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, &UpstreamError{Endpoint: endpoint, StatusCode: res.StatusCode, Body: body}
	}

	return &Response{StatusCode: res.StatusCode, Body: body}, nil
}

func (c *Client) recordCall(ctx context.Context, userID int64, method, endpoint string, request, response []byte, statusCode int, duration time.Duration) {
	c.callLog.Record(ctx, &apilog.Entry{
		ID:         uuid.New(),
		UserID:     userID,
		Endpoint:   endpoint,
		Method:     method,
		Request:    request,
		Response:   response,
		StatusCode: statusCode,
		DurationMS: duration.Milliseconds(),
		IPAddress:  callOriginAddress,
		CreatedAt:  time.Now().UTC(),
	})
}

// sleep waits for d or until ctx is canceled, so an upstream timeout can
// abort pending retries.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
