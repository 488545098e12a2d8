package civica

import (
	"errors"
	"time"

	"github.com/kailas-cloud/civica/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrRecordNotFound    = domain.ErrRecordNotFound
	ErrScreenNotFound    = domain.ErrScreenNotFound
	ErrEvidenceNotFound  = domain.ErrEvidenceNotFound
	ErrInvalidCatalog    = domain.ErrInvalidCatalog
	ErrInvalidEvidence   = domain.ErrInvalidEvidence
	ErrInvalidContact    = domain.ErrInvalidContact
	ErrContactNotFound   = domain.ErrContactNotFound
	ErrValidation        = domain.ErrValidation
	ErrVaultLocked       = domain.ErrVaultLocked
	ErrNotVaultScreen    = domain.ErrNotVaultScreen
	ErrAttemptsThrottled = domain.ErrAttemptsThrottled
	ErrTooManyScreens    = domain.ErrTooManyScreens
	ErrVaultDisabled     = errors.New("civica: vault not configured (use WithPassphrase or WithPassphraseHash)")
	ErrClosed            = errors.New("civica: screen closed")
)

// RetryAfter extracts the throttle window remainder from an unlock error.
func RetryAfter(err error) (time.Duration, bool) {
	var te *domain.ThrottledError
	if errors.As(err, &te) {
		return te.RetryAfter, true
	}
	return 0, false
}
