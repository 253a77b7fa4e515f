package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireUser(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "header present", header: "user-1", wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "header missing", wantStatus: http.StatusUnauthorized},
		{name: "blank header", header: "   ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserIDFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			rr := httptest.NewRecorder()

			RequireUser(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if seen != tt.wantUser {
				t.Fatalf("expected user %q, got %q", tt.wantUser, seen)
			}
		})
	}
}
