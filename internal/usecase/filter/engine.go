package filter

import (
	"github.com/kailas-cloud/civica/internal/domain/catalog"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/domain/record"
	"github.com/kailas-cloud/civica/internal/metrics"
)

// Engine applies filters and records evaluation metrics.
type Engine struct{}

// NewEngine creates a filter engine.
func NewEngine() *Engine { return &Engine{} }

// Catalog filters a catalog. The catalog's "all" label is treated as ALL.
func (e *Engine) Catalog(c catalog.Catalog, q query.Query) []record.Record {
	return e.Records(c.Name(), c.Records(), q.Localize(c.AllLabel()))
}

// Records filters an arbitrary record list, labelling metrics with source.
func (e *Engine) Records(source string, records []record.Record, q query.Query) []record.Record {
	out := Apply(records, q)
	metrics.FilterEvaluationsTotal.WithLabelValues(source).Inc()
	metrics.FilterResultSize.WithLabelValues(source).Observe(float64(len(out)))
	return out
}
