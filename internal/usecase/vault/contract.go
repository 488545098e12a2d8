package vault

import (
	"context"
	"time"

	"github.com/kailas-cloud/civica/internal/domain/gate"
	"github.com/kailas-cloud/civica/internal/repository/evidence"
)

// Repository defines the storage contract for sealed evidence.
type Repository interface {
	Put(ctx context.Context, vaultID string, s evidence.Sealed) error
	Get(ctx context.Context, vaultID, id string) (evidence.Sealed, error)
	List(ctx context.Context, vaultID string) ([]evidence.Sealed, error)
	Delete(ctx context.Context, vaultID, id string) error
}

// AttemptCounter tracks failed unlock attempts per vault.
type AttemptCounter interface {
	RecordFailure(ctx context.Context, vaultID string) error
	Failures(ctx context.Context, vaultID string) (int64, time.Duration, error)
	Reset(ctx context.Context, vaultID string) error
}

// Gate is the passphrase gate of a mounted vault screen.
type Gate interface {
	AttemptUnlock(input string) gate.Result
	IsUnlocked() bool
}
