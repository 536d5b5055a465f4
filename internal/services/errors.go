package services

import "errors"

// Search outcomes
var (
	ErrSearchValueEmpty = errors.New("Search value cannot be empty")
	ErrPalletNotFound   = errors.New("Pallet not found")
	ErrPalletVoided     = errors.New("Pallet is already voided")
	ErrPalletDamaged    = errors.New("Pallet is already damaged")
)

// Password verification failures
var (
	ErrInvalidSession     = errors.New("Invalid user session, please login again")
	ErrOperatorNotFound   = errors.New("User not found in system. Please contact administrator.")
	ErrIncorrectPassword  = errors.New("Incorrect password, please try again")
	ErrPasswordVerifyFail = errors.New("Password verification failed, please retry")
)

// Void validation
var (
	ErrInvalidReason      = errors.New("Invalid void reason")
	ErrPasswordRequired   = errors.New("Password is required")
	ErrInvalidDamageQty   = errors.New("Invalid damage quantity")
	ErrACOPartialDamage   = errors.New("ACO order pallets must be fully damaged, partial damage is not allowed")
	ErrBatchEmpty         = errors.New("No pallets selected")
	ErrBatchFull          = errors.New("Batch is full")
	ErrBatchDuplicate     = errors.New("Pallet is already in the batch")
	ErrProductNotFound    = errors.New("Product not found")
	ErrMissingReprintData = errors.New("Missing required fields")
	ErrPrinterDisabled    = errors.New("No label printer configured")
	ErrInvalidFilter      = errors.New("Invalid filter")
)

// IsPasswordError reports whether err came from operator password verification
func IsPasswordError(err error) bool {
	return errors.Is(err, ErrInvalidSession) ||
		errors.Is(err, ErrOperatorNotFound) ||
		errors.Is(err, ErrIncorrectPassword) ||
		errors.Is(err, ErrPasswordVerifyFail)
}
