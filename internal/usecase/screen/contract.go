package screen

import (
	"context"

	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/gate"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/usecase/vault"
)

// CatalogSource resolves catalogs by name.
type CatalogSource interface {
	Get(ctx context.Context, name string) (domcat.Catalog, error)
}

// Vault performs gate and evidence operations for vault screens.
type Vault interface {
	Unlock(ctx context.Context, g vault.Gate, passphrase string) (gate.Result, error)
	Add(ctx context.Context, g vault.Gate, in vault.Input) (domev.Evidence, error)
	Get(ctx context.Context, g vault.Gate, id string) (domev.Evidence, error)
	List(ctx context.Context, g vault.Gate, q query.Query) ([]domev.Evidence, error)
	Delete(ctx context.Context, g vault.Gate, id string) error
}
