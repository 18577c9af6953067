package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type fakeCounterStore struct {
	mu        sync.Mutex
	counts    map[string]int64
	incrErr   error
	expireErr error
	deleted   []string
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]int64)}
}

func (f *fakeCounterStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if f.incrErr != nil {
		cmd.SetErr(f.incrErr)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounterStore) Expire(ctx context.Context, key string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if f.expireErr != nil {
		cmd.SetErr(f.expireErr)
		return cmd
	}
	cmd.SetVal(true)
	return cmd
}

func (f *fakeCounterStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.counts, key)
		f.deleted = append(f.deleted, key)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func newLimitedRouter(store CounterStore, limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimit(store, limit, window), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doLimitedPost(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitRejectsPastBudget(t *testing.T) {
	store := newFakeCounterStore()
	r := newLimitedRouter(store, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if w := doLimitedPost(r); w.Code != http.StatusOK {
			t.Fatalf("request %d within budget: expected 200, got %d", i+1, w.Code)
		}
	}

	w := doLimitedPost(r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("past budget: expected 429, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rate_limited") {
		t.Fatalf("expected rate_limited error code, got %s", w.Body.String())
	}
}

func TestRateLimitFailsOpenOnRedisError(t *testing.T) {
	store := newFakeCounterStore()
	store.incrErr = errors.New("connection refused")
	r := newLimitedRouter(store, 1, time.Minute)

	for i := 0; i < 5; i++ {
		if w := doLimitedPost(r); w.Code != http.StatusOK {
			t.Fatalf("expected fail-open 200, got %d", w.Code)
		}
	}
}

// A counter whose Expire never lands must not be enforced, or the client
// would stay limited long past the window.
func TestRateLimitFailsOpenWhenExpireFails(t *testing.T) {
	store := newFakeCounterStore()
	store.expireErr = errors.New("connection reset")
	r := newLimitedRouter(store, 1, time.Minute)

	for i := 0; i < 3; i++ {
		if w := doLimitedPost(r); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected fail-open 200, got %d", i+1, w.Code)
		}
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.deleted) != 3 {
		t.Fatalf("expected the unexpirable counter dropped each time, got %d deletes", len(store.deleted))
	}
}

func TestRateLimitDisabledWithoutBudget(t *testing.T) {
	store := newFakeCounterStore()
	r := newLimitedRouter(store, 0, time.Minute)

	for i := 0; i < 5; i++ {
		if w := doLimitedPost(r); w.Code != http.StatusOK {
			t.Fatalf("expected 200 with limiter disabled, got %d", w.Code)
		}
	}
}
