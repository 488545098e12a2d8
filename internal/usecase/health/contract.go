package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogCounter reports how many catalogs are loaded.
type CatalogCounter interface {
	Len() int
}
