package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error kinds. Every error returned by repositories and services wraps one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("reservation expired")
	ErrStorage      = errors.New("storage failure")
	ErrForbidden    = errors.New("forbidden operation")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	// Campaign errors
	ErrCampaignNotFound  = fmt.Errorf("%w: campaign not found", ErrNotFound)
	ErrCampaignNotActive = fmt.Errorf("%w: campaign is not accepting reservations", ErrConflict)
	ErrCampaignNotDraft  = fmt.Errorf("%w: campaign is not a draft", ErrConflict)

	// Order / ticket errors
	ErrOrderNotFound        = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrInvalidTicketNumbers = fmt.Errorf("%w: invalid ticket numbers", ErrValidation)
	ErrOrderSettled         = fmt.Errorf("%w: order already settled", ErrConflict)

	// Proof errors
	ErrProofNotFound      = fmt.Errorf("%w: payment proof not found", ErrNotFound)
	ErrProofExists        = fmt.Errorf("%w: order already has a payment proof", ErrConflict)
	ErrProofDecided       = fmt.Errorf("%w: payment proof already decided", ErrConflict)
	ErrProofExpired       = fmt.Errorf("%w: payment proof expired", ErrExpired)
	ErrProofOrderMismatch = fmt.Errorf("%w: payment proof does not belong to order", ErrValidation)

	// Provider errors
	ErrUnknownProvider    = fmt.Errorf("%w: unknown provider", ErrNotFound)
	ErrMalformedPayload   = fmt.Errorf("%w: malformed notification payload", ErrValidation)
	ErrMissingReference   = fmt.Errorf("%w: missing payment reference", ErrValidation)
	ErrMalformedReference = fmt.Errorf("%w: malformed payment reference", ErrValidation)
	ErrUnknownReference   = fmt.Errorf("%w: reference does not match any order", ErrValidation)
	ErrInvalidSignature   = fmt.Errorf("%w: invalid notification signature", ErrUnauthorized)
)

// ConflictError reports the ticket numbers that could not be reserved.
type ConflictError struct {
	CampaignID  string
	Unavailable []int
}

func (e *ConflictError) Error() string {
	nums := make([]string, 0, len(e.Unavailable))
	for _, n := range e.Unavailable {
		nums = append(nums, strconv.Itoa(n))
	}
	return fmt.Sprintf("tickets not available in campaign %s: %s", e.CampaignID, strings.Join(nums, ","))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
