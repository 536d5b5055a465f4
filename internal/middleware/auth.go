package middleware

import (
	"context"
	"net/http"
	"strings"

	"pallet-backend/internal/auth"
	"pallet-backend/internal/models"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"
const ClockNumberKey contextKey = "clock_number"

// userSlotKey holds a *userSlot placed by outer middleware that runs
// before authentication and needs the user afterwards.
const userSlotKey contextKey = "user_slot"

type userSlot struct {
	id int
	ok bool
}

// UserLookup loads the current state of a login user
type UserLookup interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	userRepo   UserLookup
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, userRepo UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

// bearerToken extracts the token from "Bearer <token>". Websocket upgrades
// may pass it as ?token= since browsers cannot set headers on them.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			if t := r.URL.Query().Get("token"); t != "" {
				return t, ""
			}
		}
		return "", "Authorization header required"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format"
	}
	return parts[1], ""
}

// authenticate validates the token and reloads the user. It writes the
// error response itself and returns nil on failure.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*models.User, *auth.Claims) {
	token, msg := bearerToken(r)
	if msg != "" {
		http.Error(w, msg, http.StatusUnauthorized)
		return nil, nil
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return nil, nil
	}

	// Check database for current user status (for immediate permission updates)
	user, err := m.userRepo.Get(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return nil, nil
	}

	if !user.IsActive {
		http.Error(w, "Account suspended. Please contact administrator.", http.StatusForbidden)
		return nil, nil
	}

	return user, claims
}

func withUser(ctx context.Context, user *models.User, claims *auth.Claims) context.Context {
	if slot, ok := ctx.Value(userSlotKey).(*userSlot); ok {
		slot.id, slot.ok = user.ID, true
	}
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	ctx = context.WithValue(ctx, EmailKey, user.Email)
	ctx = context.WithValue(ctx, RoleKey, user.Role)
	return context.WithValue(ctx, ClockNumberKey, claims.ClockNumber)
}

// Authenticate is a middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, claims := m.authenticate(w, r)
		if user == nil {
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, claims)))
	})
}

// RequireRole is a middleware that ensures the user has one of the allowed roles
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, claims := m.authenticate(w, r)
			if user == nil {
				return
			}

			hasRole := false
			for _, role := range allowedRoles {
				if user.Role == role {
					hasRole = true
					break
				}
			}
			if !hasRole {
				http.Error(w, "Forbidden: Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, claims)))
		})
	}
}

// RequireAdmin is a middleware that ensures the user has admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole("admin")(next)
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// GetEmailFromContext extracts email from request context
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetClockNumberFromContext extracts the operator clock number, 0 if none
func GetClockNumberFromContext(ctx context.Context) int {
	n, _ := ctx.Value(ClockNumberKey).(int)
	return n
}

// WithEmail is used by tests and internal callers to act as a user
func WithEmail(ctx context.Context, userID int, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, EmailKey, email)
}
