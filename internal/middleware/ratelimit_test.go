package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
)

func newLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", limiter.Handle(), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestRateLimiter_BlocksAfterBudget(t *testing.T) {
	limiter := NewRateLimiter(logger.NewNop(), 2, time.Minute)
	router := newLimitedRouter(limiter)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "retryAfter") {
		t.Fatalf("429 body should carry retryAfter, got %q", body)
	}
}

func TestRateLimiter_PerIPBuckets(t *testing.T) {
	limiter := NewRateLimiter(logger.NewNop(), 1, time.Minute)
	router := newLimitedRouter(limiter)

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest(http.MethodGet, "/ping", nil)
	reqA.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(first, reqA)
	if first.Code != http.StatusOK {
		t.Fatalf("first client should pass, got %d", first.Code)
	}

	blocked := httptest.NewRecorder()
	reqA2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	reqA2.RemoteAddr = "10.0.0.1:1235"
	router.ServeHTTP(blocked, reqA2)
	if blocked.Code != http.StatusTooManyRequests {
		t.Fatalf("same client should be limited, got %d", blocked.Code)
	}

	other := httptest.NewRecorder()
	reqB := httptest.NewRequest(http.MethodGet, "/ping", nil)
	reqB.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(other, reqB)
	if other.Code != http.StatusOK {
		t.Fatalf("a different client has its own budget, got %d", other.Code)
	}
}
