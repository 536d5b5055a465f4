package services

import (
	"context"
	"errors"
	"log"

	"pallet-backend/internal/auth"

	"github.com/jackc/pgx/v5"
)

// PasswordVerifier re-checks the signed-in operator's password before a
// destructive action and resolves their clock number.
type PasswordVerifier struct {
	Operators OperatorStore
	Users     UserStore
}

func NewPasswordVerifier(operators OperatorStore, users UserStore) *PasswordVerifier {
	return &PasswordVerifier{Operators: operators, Users: users}
}

// Verify returns the operator clock number for email when password matches
func (v *PasswordVerifier) Verify(ctx context.Context, email, password string) (int, error) {
	if email == "" {
		return 0, ErrInvalidSession
	}

	op, err := v.Operators.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[PasswordVerifier] Operator lookup failed for %s: %v", email, err)
		}
		return 0, ErrOperatorNotFound
	}

	user, err := v.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInvalidSession
		}
		log.Printf("[PasswordVerifier] User lookup failed for %s: %v", email, err)
		return 0, ErrPasswordVerifyFail
	}
	if !user.IsActive {
		return 0, ErrInvalidSession
	}

	switch err := auth.CheckPassword(user.PasswordHash, password); {
	case err == nil:
		return op.ID, nil
	case errors.Is(err, auth.ErrPasswordMismatch):
		return 0, ErrIncorrectPassword
	default:
		log.Printf("[PasswordVerifier] Hash check failed for %s: %v", email, err)
		return 0, ErrPasswordVerifyFail
	}
}
