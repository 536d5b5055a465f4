package services

import (
	"context"
	"errors"
	"log"

	"pallet-backend/internal/auth"
	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountSuspended    = errors.New("Account suspended. Please contact administrator.")
)

// TokenIssuer signs session tokens
type TokenIssuer interface {
	GenerateToken(user *models.User, clockNumber int) (string, error)
}

// UserService signs operators in
type UserService struct {
	Users     UserStore
	Operators OperatorStore
	Tokens    TokenIssuer
}

func NewUserService(users UserStore, operators OperatorStore, tokens TokenIssuer) *UserService {
	return &UserService{Users: users, Operators: operators, Tokens: tokens}
}

// Login checks the password and issues a token. The clock number is
// embedded when the email also belongs to an operator.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := s.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[Auth] User lookup failed for %s: %v", req.Email, err)
		}
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountSuspended
	}

	var op *models.Operator
	clock := 0
	if o, err := s.Operators.GetByEmail(ctx, req.Email); err == nil {
		op = o
		clock = o.ID
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("[Auth] Operator lookup failed for %s: %v", req.Email, err)
	}

	token, err := s.Tokens.GenerateToken(user, clock)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:    token,
		User:     user,
		Operator: op,
	}, nil
}
