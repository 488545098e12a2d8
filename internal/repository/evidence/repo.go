// Package evidence stores sealed vault evidence in hashes keyed by vault and id.
package evidence

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/civica/internal/db"
	"github.com/kailas-cloud/civica/internal/domain"
)

const (
	fieldBlob    = "blob"
	fieldVersion = "v"
	blobVersion  = "1"
)

// store is the consumer interface for evidence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Sealed is an opaque encrypted evidence payload.
type Sealed struct {
	ID   string
	Data []byte
}

// Repo implements usecase/vault.Repository.
type Repo struct {
	store store
}

// New creates an evidence repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func evidenceKey(vaultID, id string) string {
	return keyPrefix(vaultID) + id
}

func keyPrefix(vaultID string) string {
	return "civica:vault:" + vaultID + ":evidence:"
}

// Put writes (or replaces) a sealed payload.
func (r *Repo) Put(ctx context.Context, vaultID string, s Sealed) error {
	key := evidenceKey(vaultID, s.ID)
	fields := map[string]string{
		fieldBlob:    base64.StdEncoding.EncodeToString(s.Data),
		fieldVersion: blobVersion,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a sealed payload by id.
func (r *Repo) Get(ctx context.Context, vaultID, id string) (Sealed, error) {
	key := evidenceKey(vaultID, id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Sealed{}, domain.ErrEvidenceNotFound
		}
		return Sealed{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseSealed(id, fields)
}

// List returns every sealed payload of a vault ordered by id.
// Keys removed between SCAN and HGETALL are skipped.
func (r *Repo) List(ctx context.Context, vaultID string) ([]Sealed, error) {
	prefix := keyPrefix(vaultID)
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	sort.Strings(keys)

	out := make([]Sealed, 0, len(keys))
	for _, key := range keys {
		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("hgetall %s: %w", key, err)
		}
		s, err := parseSealed(strings.TrimPrefix(key, prefix), fields)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Delete removes a sealed payload.
func (r *Repo) Delete(ctx context.Context, vaultID, id string) error {
	key := evidenceKey(vaultID, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrEvidenceNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func parseSealed(id string, fields map[string]string) (Sealed, error) {
	if v := fields[fieldVersion]; v != blobVersion {
		return Sealed{}, fmt.Errorf("evidence %s: unsupported blob version %q", id, v)
	}
	data, err := base64.StdEncoding.DecodeString(fields[fieldBlob])
	if err != nil {
		return Sealed{}, fmt.Errorf("evidence %s: decode blob: %w", id, err)
	}
	return Sealed{ID: id, Data: data}, nil
}
