package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound signals a missing catalog.
	ErrNotFound = errors.New("not found")
	// ErrRecordNotFound signals a record id that is not part of the screen's catalog.
	ErrRecordNotFound = errors.New("record not found")
	// ErrScreenNotFound signals an unknown or evicted screen.
	ErrScreenNotFound = errors.New("screen not found")
	// ErrEvidenceNotFound signals a missing vault evidence item.
	ErrEvidenceNotFound = errors.New("evidence not found")
	// ErrInvalidCatalog signals a catalog definition that violates its invariants.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrDuplicateRecordID signals two records sharing an id within one catalog.
	ErrDuplicateRecordID = errors.New("duplicate record id")
	// ErrInvalidEvidence signals an evidence payload that fails validation.
	ErrInvalidEvidence = errors.New("invalid evidence")
	// ErrInvalidContact signals a trusted contact without a name or a number.
	ErrInvalidContact = errors.New("invalid contact")
	// ErrContactNotFound signals a contact id that is not on the screen's list.
	ErrContactNotFound = errors.New("contact not found")
	// ErrValidation signals a request missing a required attribute.
	ErrValidation = errors.New("validation failed")

	// ErrVaultLocked signals a vault operation on a locked (or non-vault) screen.
	ErrVaultLocked = errors.New("vault locked")
	// ErrNotVaultScreen signals a gate operation on a list screen.
	ErrNotVaultScreen = errors.New("screen has no passphrase gate")
	// ErrAttemptsThrottled signals too many failed unlock attempts in the current window.
	ErrAttemptsThrottled = errors.New("too many failed attempts")
	// ErrTooManyScreens signals that the active screen limit is reached.
	ErrTooManyScreens = errors.New("too many active screens")
)

// ThrottledError wraps ErrAttemptsThrottled with the time left in the failure window.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrAttemptsThrottled.Error(), e.RetryAfter)
}

func (e *ThrottledError) Unwrap() error { return ErrAttemptsThrottled }

// NewThrottled creates a throttled error.
func NewThrottled(retryAfter time.Duration) error {
	return &ThrottledError{RetryAfter: retryAfter}
}
