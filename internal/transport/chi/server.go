package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civica/internal/domain"
	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/domain/theme"
	logpkg "github.com/kailas-cloud/civica/internal/logger"
	"github.com/kailas-cloud/civica/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/civica/internal/usecase/health"
	screenuc "github.com/kailas-cloud/civica/internal/usecase/screen"
	"github.com/kailas-cloud/civica/internal/usecase/vault"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// CatalogReader reads the current catalog set.
type CatalogReader interface {
	Get(ctx context.Context, name string) (domcat.Catalog, error)
	List(ctx context.Context) []domcat.Catalog
}

// Server implements ServerInterface.
type Server struct {
	catalogs      CatalogReader
	engine        *filter.Engine
	screens       *screenuc.Service
	health        *healthuc.Service
	theme         theme.Theme
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	catalogs CatalogReader,
	engine *filter.Engine,
	screens *screenuc.Service,
	health *healthuc.Service,
	th theme.Theme,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalogs: catalogs,
		engine:   engine,
		screens:  screens,
		health:   health,
		theme:    th,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		throttledHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, ErrorResponseCodeRecordNotFound),
		sentinelHandler(domain.ErrScreenNotFound, http.StatusNotFound, ErrorResponseCodeScreenNotFound),
		sentinelHandler(domain.ErrEvidenceNotFound, http.StatusNotFound, ErrorResponseCodeEvidenceNotFound),
		sentinelHandler(domain.ErrVaultLocked, http.StatusForbidden, ErrorResponseCodeVaultLocked),
		sentinelHandler(domain.ErrNotVaultScreen, http.StatusConflict, ErrorResponseCodeNotVaultScreen),
		sentinelHandler(domain.ErrTooManyScreens, http.StatusTooManyRequests, ErrorResponseCodeTooManyScreens),
		sentinelHandler(domain.ErrContactNotFound, http.StatusNotFound, ErrorResponseCodeContactNotFound),
		sentinelHandler(domain.ErrInvalidEvidence, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidContact, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
	}
	return s
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// GetTheme handles GET /theme.
func (s *Server) GetTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemeResponse{Tokens: s.theme.Tokens()})
}

// ListCatalogs handles GET /catalogs.
func (s *Server) ListCatalogs(w http.ResponseWriter, r *http.Request) {
	cats := s.catalogs.List(r.Context())
	items := make([]CatalogSummary, len(cats))
	for i, c := range cats {
		items[i] = s.catalogToSummary(c)
	}
	writeJSON(w, http.StatusOK, CatalogListResponse{Items: items, Total: len(items)})
}

// GetCatalog handles GET /catalogs/{catalog}.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request, catalog string) {
	c, err := s.catalogs.Get(r.Context(), catalog)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.catalogToSummary(c))
}

// FilterRecords handles GET /catalogs/{catalog}/records.
func (s *Server) FilterRecords(w http.ResponseWriter, r *http.Request, catalog string, params FilterParams) {
	c, err := s.catalogs.Get(r.Context(), catalog)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	matched := s.engine.Catalog(c, queryFromParams(params))
	items := make([]Record, len(matched))
	for i, rec := range matched {
		items[i] = recordToWire(rec, nil)
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Items: items, Total: len(items), CatalogSize: c.Len()})
}

// MountScreen handles POST /screens.
func (s *Server) MountScreen(w http.ResponseWriter, r *http.Request) {
	var req MountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, err := screenuc.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	v, err := s.screens.Mount(r.Context(), req.Catalog, kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/screens/"+v.ID)
	writeJSON(w, http.StatusCreated, viewToWire(v))
}

// GetScreen handles GET /screens/{screen}.
func (s *Server) GetScreen(w http.ResponseWriter, r *http.Request, screen string) {
	s.writeView(w, r)(s.screens.View(r.Context(), screen))
}

// UnmountScreen handles DELETE /screens/{screen}.
func (s *Server) UnmountScreen(w http.ResponseWriter, r *http.Request, screen string) {
	if err := s.screens.Unmount(r.Context(), screen); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetQueryText handles PUT /screens/{screen}/query/text.
func (s *Server) SetQueryText(w http.ResponseWriter, r *http.Request, screen string) {
	var req TextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.writeView(w, r)(s.screens.OnTextChange(r.Context(), screen, query.CoerceText(req.Text)))
}

// SetQueryCategory handles PUT /screens/{screen}/query/category.
func (s *Server) SetQueryCategory(w http.ResponseWriter, r *http.Request, screen string) {
	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.writeView(w, r)(s.screens.OnCategorySelect(r.Context(), screen, query.CoerceCategory(req.Category)))
}

// ToggleItem handles POST /screens/{screen}/items/{id}/toggle.
func (s *Server) ToggleItem(w http.ResponseWriter, r *http.Request, screen, id string) {
	s.writeView(w, r)(s.screens.OnItemTap(r.Context(), screen, id))
}

// UnlockScreen handles POST /screens/{screen}/unlock.
func (s *Server) UnlockScreen(w http.ResponseWriter, r *http.Request, screen string) {
	var req UnlockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, result, err := s.screens.OnPassphraseSubmit(r.Context(), screen, req.Passphrase)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnlockResponse{Result: string(result), View: viewToWire(v)})
}

// LockScreen handles POST /screens/{screen}/lock.
func (s *Server) LockScreen(w http.ResponseWriter, r *http.Request, screen string) {
	s.writeView(w, r)(s.screens.Lock(r.Context(), screen))
}

// AddContact handles POST /screens/{screen}/contacts.
func (s *Server) AddContact(w http.ResponseWriter, r *http.Request, screen string) {
	var req ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := s.screens.AddContact(r.Context(), screen, req.Name, req.Number)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewToWire(v))
}

// RemoveContact handles DELETE /screens/{screen}/contacts/{id}.
func (s *Server) RemoveContact(w http.ResponseWriter, r *http.Request, screen, id string) {
	s.writeView(w, r)(s.screens.RemoveContact(r.Context(), screen, id))
}

// ListEvidence handles GET /screens/{screen}/evidence.
// Without parameters the screen's own query applies.
func (s *Server) ListEvidence(w http.ResponseWriter, r *http.Request, screen string, params FilterParams) {
	var q *query.Query
	if params.Q != nil || params.Category != nil {
		pq := queryFromParams(params)
		q = &pq
	}

	items, err := s.screens.ListEvidence(r.Context(), screen, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out := make([]Evidence, len(items))
	for i, ev := range items {
		out[i] = evidenceToWire(ev, false)
	}
	writeJSON(w, http.StatusOK, EvidenceListResponse{Items: out, Total: len(out)})
}

// AddEvidence handles POST /screens/{screen}/evidence.
func (s *Server) AddEvidence(w http.ResponseWriter, r *http.Request, screen string) {
	var req EvidenceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := s.screens.AddEvidence(r.Context(), screen, evidenceFromWire(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/screens/%s/evidence/%s", screen, ev.ID()))
	writeJSON(w, http.StatusCreated, evidenceToWire(ev, false))
}

// GetEvidence handles GET /screens/{screen}/evidence/{id}.
func (s *Server) GetEvidence(w http.ResponseWriter, r *http.Request, screen, id string) {
	ev, err := s.screens.GetEvidence(r.Context(), screen, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evidenceToWire(ev, false))
}

// DeleteEvidence handles DELETE /screens/{screen}/evidence/{id}.
func (s *Server) DeleteEvidence(w http.ResponseWriter, r *http.Request, screen, id string) {
	if err := s.screens.DeleteEvidence(r.Context(), screen, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeView returns a sink for the (View, error) pair of a screen event.
func (s *Server) writeView(w http.ResponseWriter, r *http.Request) func(screenuc.View, error) {
	return func(v screenuc.View, err error) {
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewToWire(v))
	}
}

func (s *Server) catalogToSummary(c domcat.Catalog) CatalogSummary {
	color, _ := s.theme.Color(c.Accent())
	return CatalogSummary{
		Name:        c.Name(),
		Title:       c.Title(),
		AllLabel:    c.AllLabel(),
		Accent:      c.Accent(),
		AccentColor: color,
		Categories:  c.Categories(),
		Searchable:  c.Searchable(),
		RecordCount: c.Len(),
	}
}

func queryFromParams(p FilterParams) query.Query {
	q := query.New()
	if p.Q != nil {
		q = q.WithText(*p.Q)
	}
	if p.Category != nil {
		q = q.WithCategory(*p.Category)
	}
	return q
}

func evidenceFromWire(req EvidenceRequest) vault.Input {
	in := vault.Input{
		Title:     req.Title,
		Kind:      domev.Kind(req.Type),
		SizeBytes: req.SizeBytes,
		Note:      req.Note,
	}
	if req.RecordedAt != nil {
		in.RecordedAt = *req.RecordedAt
	}
	return in
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrRecordNotFound,
		domain.ErrScreenNotFound,
		domain.ErrEvidenceNotFound,
		domain.ErrContactNotFound,
		domain.ErrVaultLocked,
		domain.ErrNotVaultScreen,
		domain.ErrAttemptsThrottled,
		domain.ErrTooManyScreens,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	// validation details are client-facing by construction
	if errors.Is(err, domain.ErrInvalidEvidence) ||
		errors.Is(err, domain.ErrInvalidContact) ||
		errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// throttledHandler handles ErrAttemptsThrottled with a Retry-After header.
func throttledHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrAttemptsThrottled) {
		return false
	}
	var te *domain.ThrottledError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(te.RetryAfter.Seconds()))))
	}
	writeError(w, http.StatusTooManyRequests, ErrorResponseCodeAttemptsThrottled, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger).With(zap.String("path", r.URL.Path))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
