package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// 1 token per minute with burst 1: the second request must be rejected.
	r.Use(RateLimitMiddleware(rate.Every(time.Minute), 1))
	r.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 for the first request, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the second request, got %d", second.Code)
	}
}

func TestRateLimiterIsPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Minute), 1)

	if !limiter.GetLimiter("10.0.0.1").Allow() {
		t.Fatalf("first request from 10.0.0.1 should pass")
	}
	if limiter.GetLimiter("10.0.0.1").Allow() {
		t.Fatalf("second request from 10.0.0.1 should be limited")
	}
	if !limiter.GetLimiter("10.0.0.2").Allow() {
		t.Fatalf("a different client must have its own budget")
	}
}
