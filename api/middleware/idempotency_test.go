package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vardaanagro/agrofarm-backend/api/validators"
)

type fakeIdempotencyStore struct {
	data map[string]string
	ttl  time.Duration
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	f.ttl = ttl
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func orderRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req.WithContext(WithUserID(req.Context(), "user-1"))
}

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, *calls)
	})
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, orderRequest("key-1", `{"shippingInfo":{}}`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, orderRequest("key-1", `{"shippingInfo":{}}`))

	require.Equal(t, 1, calls)
	require.Equal(t, defaultIdempotencyTTL, store.ttl)
	require.Equal(t, http.StatusCreated, second.Code)
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), time.Hour, nil)(countingHandler(&calls, http.StatusCreated))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest("key-1", `{"a":1}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest("key-1", `{"a":2}`))

	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(countingHandler(&calls, http.StatusCreated))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest("", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest("", `{}`))
	require.Equal(t, 2, calls)
	require.Empty(t, store.data)
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(countingHandler(&calls, http.StatusInternalServerError))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest("key-1", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest("key-1", `{}`))
	require.Equal(t, 2, calls)
	require.Empty(t, store.data)
}

func TestIdempotencyScopesByUser(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(countingHandler(&calls, http.StatusCreated))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest("shared", `{}`))
	other := orderRequest("shared", `{}`)
	handler.ServeHTTP(httptest.NewRecorder(), other.WithContext(WithUserID(other.Context(), "user-2")))
	require.Equal(t, 2, calls)
	require.Len(t, store.data, 2)
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(countingHandler(&calls, http.StatusCreated))

	body := `{"notes":"` + strings.Repeat("x", validators.MaxBodyBytes) + `"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest("key-big", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Request body too large")
	require.Zero(t, calls)
	require.Empty(t, store.data)
}
