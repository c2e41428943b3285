package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	notification "anoa.com/userservice/internal/modules/notification/service"
	"anoa.com/userservice/pkg/response"
	"github.com/gin-gonic/gin"
)

type staticResolver struct{ id int64 }

func (r staticResolver) Resolve(context.Context, string) (int64, error) { return r.id, nil }

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://app.example.com", want: true},
		{origin: "https://evil.example.com", want: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.want {
			t.Errorf("origin %q allowed = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !originChecker([]string{"*"})(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Error("wildcard should allow every origin")
	}
}

func TestHandleWebSocket_WithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewNotificationHandler(notification.NewNotificationService(nil), staticResolver{id: 1}, nil)

	tests := []struct {
		name     string
		identity string
		want     int
	}{
		{name: "unauthenticated", want: http.StatusUnauthorized},
		{name: "stream unavailable", identity: "uid-1", want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/events", func(c *gin.Context) {
				if tt.identity != "" {
					c.Set(response.ExternalIDKey, tt.identity)
				}
				h.HandleWebSocket(c)
			})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
