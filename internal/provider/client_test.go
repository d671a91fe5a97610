package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/betting-ledger/internal/config"
	"github.com/betting-ledger/internal/domain/apilog"
	"github.com/betting-ledger/internal/domain/credential"
)

type MockCredentialRepo struct {
	mock.Mock
}

func (m *MockCredentialRepo) Create(ctx context.Context, cred *credential.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepo) GetByUserID(ctx context.Context, userID int64) (*credential.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credential.Credential), args.Error(1)
}

func (m *MockCredentialRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// recordingCallLog captures entries instead of persisting them.
type recordingCallLog struct {
	mu      sync.Mutex
	entries []*apilog.Entry
}

func (r *recordingCallLog) Record(_ context.Context, entry *apilog.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingCallLog) all() []*apilog.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*apilog.Entry(nil), r.entries...)
}

func newTestClient(t *testing.T, baseURL string, attempts int) (*Client, *recordingCallLog, *CircuitBreaker) {
	t.Helper()

	repo := &MockCredentialRepo{}
	repo.On("GetByUserID", mock.Anything, int64(7)).Return(&credential.Credential{
		UserID:     7,
		ExternalID: "ext-7",
		SecretKey:  "s3cret",
	}, nil)

	callLog := &recordingCallLog{}
	breaker := NewCircuitBreaker(30 * time.Second)
	client := NewClient(slog.Default(), &config.ProviderConfig{
		BaseURL:         baseURL,
		RequestTimeout:  5 * time.Second,
		RetryAttempts:   attempts,
		RetryBackoff:    time.Millisecond,
		BreakerCooldown: 30 * time.Second,
	}, repo, breaker, callLog)

	return client, callLog, breaker
}

func TestClientCall_Success(t *testing.T) {
	var gotHeaders http.Header
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"bet_id":101,"status":"accepted"}`))
	}))
	defer server.Close()

	client, callLog, breaker := newTestClient(t, server.URL, 3)

	resp, err := client.Call(context.Background(), http.MethodPost, "/bet", 7, map[string]int64{"bet": 3})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var placed PlaceBetResponse
	require.NoError(t, resp.Decode(&placed))
	assert.Equal(t, int64(101), placed.BetID)

	assert.Equal(t, "ext-7", gotHeaders.Get("user-id"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))

	wantSig, err := Sign(map[string]int64{"bet": 3}, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, wantSig, gotHeaders.Get("x-signature"))
	assert.JSONEq(t, `{"bet":3}`, string(gotBody))

	entries := callLog.all()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].UserID)
	assert.Equal(t, "/bet", entries[0].Endpoint)
	assert.Equal(t, http.MethodPost, entries[0].Method)
	assert.Equal(t, http.StatusOK, entries[0].StatusCode)
	assert.Equal(t, "localhost", entries[0].IPAddress)
	assert.True(t, breaker.Allow())
}

func TestClientCall_RetriesTransientFailure(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"balance":100}`))
	}))
	defer server.Close()

	client, callLog, breaker := newTestClient(t, server.URL, 3)

	resp, err := client.Call(context.Background(), http.MethodPost, "/balance", 7, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), hits.Load())

	// One entry for the terminal outcome, not one per attempt.
	entries := callLog.all()
	require.Len(t, entries, 1)
	assert.Equal(t, http.StatusOK, entries[0].StatusCode)
	assert.True(t, breaker.Allow())
}

func TestClientCall_NonRetryableStatusFailsFast(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid bet"}`))
	}))
	defer server.Close()

	client, callLog, breaker := newTestClient(t, server.URL, 3)

	_, err := client.Call(context.Background(), http.MethodPost, "/bet", 7, map[string]int64{"bet": 99})
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnprocessableEntity, upstream.StatusCode)
	assert.Equal(t, int32(1), hits.Load(), "non-retryable status must not be retried")

	entries := callLog.all()
	require.Len(t, entries, 1)
	assert.Equal(t, http.StatusUnprocessableEntity, entries[0].StatusCode)

	assert.False(t, breaker.Allow(), "failed call trips the breaker")
}

func TestClientCall_ExhaustedRetriesTripBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, callLog, breaker := newTestClient(t, server.URL, 2)

	_, err := client.Call(context.Background(), http.MethodPost, "/win", 7, map[string]int64{"bet_id": 101})
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())

	require.Len(t, callLog.all(), 1)
	assert.False(t, breaker.Allow())
}

func TestClientCall_OpenBreakerShortCircuits(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client, callLog, breaker := newTestClient(t, server.URL, 3)
	breaker.Trip()

	_, err := client.Call(context.Background(), http.MethodPost, "/balance", 7, nil)
	require.ErrorIs(t, err, ErrCircuitOpen)

	assert.Equal(t, int32(0), hits.Load(), "no network attempt while breaker is open")
	assert.Empty(t, callLog.all(), "rejected calls are not logged")
}

func TestClientCall_MissingCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without a credential")
	}))
	defer server.Close()

	repo := &MockCredentialRepo{}
	repo.On("GetByUserID", mock.Anything, int64(42)).Return(nil, credential.ErrCredentialNotFound{UserID: 42})

	callLog := &recordingCallLog{}
	client := NewClient(slog.Default(), &config.ProviderConfig{
		BaseURL:        server.URL,
		RequestTimeout: time.Second,
		RetryAttempts:  3,
		RetryBackoff:   time.Millisecond,
	}, repo, NewCircuitBreaker(time.Second), callLog)

	_, err := client.Call(context.Background(), http.MethodPost, "/auth", 42, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccountNotConfigured{UserID: 42}))
	assert.Empty(t, callLog.all())
}

func TestClientCall_NilBodySendsEmptyObject(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, _, _ := newTestClient(t, server.URL, 1)

	_, err := client.Call(context.Background(), http.MethodPost, "/auth", 7, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(gotBody))
}

func TestClientHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			assert.Empty(t, r.Header.Get("x-signature"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, callLog, _ := newTestClient(t, server.URL, 1)
		assert.NoError(t, client.Health(context.Background()))
		assert.Empty(t, callLog.all(), "health probes are not logged")
	})

	t.Run("Unhealthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, _, _ := newTestClient(t, server.URL, 1)
		assert.Error(t, client.Health(context.Background()))
	})
}
