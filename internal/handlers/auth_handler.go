package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"pallet-backend/internal/models"
	"pallet-backend/internal/services"
	"pallet-backend/pkg/utils"
)

type Authenticator interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
}

type AuthHandler struct {
	Service Authenticator
}

func NewAuthHandler(s Authenticator) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login handles operator authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	authResp, err := h.Service.Login(r.Context(), &req)
	switch {
	case err == nil:
		log.Printf("[Auth] %s signed in from %s", req.Email, getIPAddress(r))
		utils.JSON(w, http.StatusOK, authResp)
	case errors.Is(err, services.ErrCredentialsRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrAccountSuspended):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		http.Error(w, "Login failed", http.StatusInternalServerError)
	}
}

// getIPAddress extracts the real IP address from the request
func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first (for proxies/load balancers)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}
