package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"pallet-backend/internal/auth"
	"pallet-backend/internal/config"
	"pallet-backend/internal/models"
)

type memErrorLogs struct {
	mu      sync.Mutex
	entries []*models.ErrorLog
}

func (m *memErrorLogs) Insert(ctx context.Context, l *models.ErrorLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, l)
	return nil
}

type stubUsers map[int]*models.User

func (s stubUsers) Get(ctx context.Context, id int) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("no rows")
}

func testJWT() *auth.JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "logging-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "pallet-backend"
	return auth.NewJWTManager(cfg)
}

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", code)
	})
}

func TestAPILoggingRecordsAuthenticatedUser(t *testing.T) {
	jwt := testJWT()
	authMW := NewAuthMiddleware(jwt, stubUsers{42: {ID: 42, Email: "op@pennine.test", IsActive: true}})
	token, err := jwt.GenerateToken(&models.User{ID: 42, Email: "op@pennine.test"}, 0)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		token  string
		code   int
		logged bool
		userID int
	}{
		{"server error with user", "/api/void-pallet", token, http.StatusInternalServerError, true, 42},
		{"server error without user", "/api/void-pallet", "", http.StatusInternalServerError, false, 0},
		{"client error", "/api/void-pallet", token, http.StatusNotFound, false, 0},
		{"health skipped", "/health/ready", token, http.StatusServiceUnavailable, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &memErrorLogs{}
			m := NewAPILoggingMiddleware(logs)
			h := m.Handler(authMW.Authenticate(statusHandler(tt.code)))

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			m.Close()

			if !tt.logged {
				if len(logs.entries) != 0 {
					t.Fatalf("Expected no report_log rows, got %d", len(logs.entries))
				}
				return
			}
			if len(logs.entries) != 1 {
				t.Fatalf("Expected 1 report_log row, got %d", len(logs.entries))
			}
			got := logs.entries[0]
			if got.UserID == nil || *got.UserID != tt.userID {
				t.Errorf("Expected user_id %d, got %v", tt.userID, got.UserID)
			}
			if got.Error != "POST /api/void-pallet -> 500" {
				t.Errorf("Unexpected error line %q", got.Error)
			}
			if got.ErrorInfo != "boom" {
				t.Errorf("Expected captured body, got %q", got.ErrorInfo)
			}
		})
	}
}

func TestAPILoggingWithoutAuthLeavesUserEmpty(t *testing.T) {
	logs := &memErrorLogs{}
	m := NewAPILoggingMiddleware(logs)
	m.Handler(statusHandler(http.StatusBadGateway)).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/api/auto-reprint-label/1/print", nil))
	m.Close()

	if len(logs.entries) != 1 {
		t.Fatalf("Expected 1 report_log row, got %d", len(logs.entries))
	}
	if logs.entries[0].UserID != nil {
		t.Errorf("Expected no user, got %d", *logs.entries[0].UserID)
	}
}
