package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is the machine-readable error code of an ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest        ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed  ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized      ErrorResponseCode = "unauthorized"
	ErrorResponseCodeNotFound          ErrorResponseCode = "not_found"
	ErrorResponseCodeRecordNotFound    ErrorResponseCode = "record_not_found"
	ErrorResponseCodeScreenNotFound    ErrorResponseCode = "screen_not_found"
	ErrorResponseCodeEvidenceNotFound  ErrorResponseCode = "evidence_not_found"
	ErrorResponseCodeContactNotFound   ErrorResponseCode = "contact_not_found"
	ErrorResponseCodeVaultLocked       ErrorResponseCode = "vault_locked"
	ErrorResponseCodeNotVaultScreen    ErrorResponseCode = "not_vault_screen"
	ErrorResponseCodeAttemptsThrottled ErrorResponseCode = "attempts_throttled"
	ErrorResponseCodeTooManyScreens    ErrorResponseCode = "too_many_screens"
	ErrorResponseCodeInternalError     ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ThemeResponse is the body of GET /theme.
type ThemeResponse struct {
	Tokens map[string]string `json:"tokens"`
}

// CatalogSummary describes a catalog without its records.
type CatalogSummary struct {
	Name        string   `json:"name"`
	Title       string   `json:"title,omitempty"`
	AllLabel    string   `json:"all_label,omitempty"`
	Accent      string   `json:"accent,omitempty"`
	AccentColor string   `json:"accent_color,omitempty"`
	Categories  []string `json:"categories"`
	Searchable  []string `json:"searchable"`
	RecordCount int      `json:"record_count"`
}

// CatalogListResponse is the body of GET /catalogs.
type CatalogListResponse struct {
	Items []CatalogSummary `json:"items"`
	Total int              `json:"total"`
}

// Detail is a label/value row of an expanded record.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record is a catalog entry on the wire.
type Record struct {
	ID       string            `json:"id"`
	Category string            `json:"category,omitempty"`
	Fields   map[string]string `json:"fields"`
	Details  []Detail          `json:"details,omitempty"`
	Open     bool              `json:"open"`
}

// RecordListResponse is the body of a stateless filter.
type RecordListResponse struct {
	Items       []Record `json:"items"`
	Total       int      `json:"total"`
	CatalogSize int      `json:"catalog_size"`
}

// Query mirrors a screen's filter query.
type Query struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Evidence is a vault item on the wire.
type Evidence struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	SizeBytes  int64     `json:"size_bytes"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	Open       bool      `json:"open"`
}

// EvidenceListResponse is the body of GET /screens/{screen}/evidence.
type EvidenceListResponse struct {
	Items []Evidence `json:"items"`
	Total int        `json:"total"`
}

// Contact is a trusted contact on the wire.
type Contact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// ScreenView is the rendered state of a mounted screen.
type ScreenView struct {
	ID       string     `json:"id"`
	Kind     string     `json:"kind"`
	Catalog  string     `json:"catalog,omitempty"`
	Query    Query      `json:"query"`
	Records  []Record   `json:"records"`
	Total    int        `json:"total"`
	OpenIDs  []string   `json:"open_ids"`
	Gate     string     `json:"gate,omitempty"`
	Evidence []Evidence `json:"evidence,omitempty"`
	Contacts []Contact  `json:"contacts"`
}

// MountRequest is the body of POST /screens.
type MountRequest struct {
	Catalog string `json:"catalog"`
	Kind    string `json:"kind"`
}

// TextRequest is the body of PUT /screens/{screen}/query/text.
// Text is loosely typed: non-string values clear the text.
type TextRequest struct {
	Text any `json:"text"`
}

// CategoryRequest is the body of PUT /screens/{screen}/query/category.
// Non-string values select ALL.
type CategoryRequest struct {
	Category any `json:"category"`
}

// UnlockRequest is the body of POST /screens/{screen}/unlock.
type UnlockRequest struct {
	Passphrase string `json:"passphrase"`
}

// UnlockResponse reports the gate outcome; a rejection is not an error.
type UnlockResponse struct {
	Result string     `json:"result"`
	View   ScreenView `json:"view"`
}

// EvidenceRequest is the body of POST /screens/{screen}/evidence.
type EvidenceRequest struct {
	Title      string     `json:"title"`
	Type       string     `json:"type"`
	SizeBytes  int64      `json:"size_bytes"`
	Note       string     `json:"note"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// ContactRequest is the body of POST /screens/{screen}/contacts.
type ContactRequest struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// FilterParams are the query parameters of filter endpoints.
type FilterParams struct {
	Q        *string `form:"q" json:"q,omitempty"`
	Category *string `form:"category" json:"category,omitempty"`
}

// ServerInterface lists the HTTP operations.
type ServerInterface interface {
	// (GET /health)
	Health(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
	// (GET /theme)
	GetTheme(w http.ResponseWriter, r *http.Request)
	// (GET /catalogs)
	ListCatalogs(w http.ResponseWriter, r *http.Request)
	// (GET /catalogs/{catalog})
	GetCatalog(w http.ResponseWriter, r *http.Request, catalog string)
	// (GET /catalogs/{catalog}/records)
	FilterRecords(w http.ResponseWriter, r *http.Request, catalog string, params FilterParams)
	// (POST /screens)
	MountScreen(w http.ResponseWriter, r *http.Request)
	// (GET /screens/{screen})
	GetScreen(w http.ResponseWriter, r *http.Request, screen string)
	// (DELETE /screens/{screen})
	UnmountScreen(w http.ResponseWriter, r *http.Request, screen string)
	// (PUT /screens/{screen}/query/text)
	SetQueryText(w http.ResponseWriter, r *http.Request, screen string)
	// (PUT /screens/{screen}/query/category)
	SetQueryCategory(w http.ResponseWriter, r *http.Request, screen string)
	// (POST /screens/{screen}/items/{id}/toggle)
	ToggleItem(w http.ResponseWriter, r *http.Request, screen string, id string)
	// (POST /screens/{screen}/unlock)
	UnlockScreen(w http.ResponseWriter, r *http.Request, screen string)
	// (POST /screens/{screen}/lock)
	LockScreen(w http.ResponseWriter, r *http.Request, screen string)
	// (POST /screens/{screen}/contacts)
	AddContact(w http.ResponseWriter, r *http.Request, screen string)
	// (DELETE /screens/{screen}/contacts/{id})
	RemoveContact(w http.ResponseWriter, r *http.Request, screen string, id string)
	// (GET /screens/{screen}/evidence)
	ListEvidence(w http.ResponseWriter, r *http.Request, screen string, params FilterParams)
	// (POST /screens/{screen}/evidence)
	AddEvidence(w http.ResponseWriter, r *http.Request, screen string)
	// (GET /screens/{screen}/evidence/{id})
	GetEvidence(w http.ResponseWriter, r *http.Request, screen string, id string)
	// (DELETE /screens/{screen}/evidence/{id})
	DeleteEvidence(w http.ResponseWriter, r *http.Request, screen string, id string)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// Handler creates the routes on a new router.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions registers every operation of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wr := &wrapper{handler: si, errorHandler: options.ErrorHandlerFunc}

	r.Get("/health", si.Health)
	r.Get("/metrics", si.Metrics)
	r.Get("/theme", si.GetTheme)
	r.Get("/catalogs", si.ListCatalogs)
	r.Get("/catalogs/{catalog}", wr.getCatalog)
	r.Get("/catalogs/{catalog}/records", wr.filterRecords)
	r.Post("/screens", si.MountScreen)
	r.Get("/screens/{screen}", wr.screenOp(si.GetScreen))
	r.Delete("/screens/{screen}", wr.screenOp(si.UnmountScreen))
	r.Put("/screens/{screen}/query/text", wr.screenOp(si.SetQueryText))
	r.Put("/screens/{screen}/query/category", wr.screenOp(si.SetQueryCategory))
	r.Post("/screens/{screen}/items/{id}/toggle", wr.screenItemOp(si.ToggleItem))
	r.Post("/screens/{screen}/unlock", wr.screenOp(si.UnlockScreen))
	r.Post("/screens/{screen}/lock", wr.screenOp(si.LockScreen))
	r.Post("/screens/{screen}/contacts", wr.screenOp(si.AddContact))
	r.Delete("/screens/{screen}/contacts/{id}", wr.screenItemOp(si.RemoveContact))
	r.Get("/screens/{screen}/evidence", wr.listEvidence)
	r.Post("/screens/{screen}/evidence", wr.screenOp(si.AddEvidence))
	r.Get("/screens/{screen}/evidence/{id}", wr.screenItemOp(si.GetEvidence))
	r.Delete("/screens/{screen}/evidence/{id}", wr.screenItemOp(si.DeleteEvidence))
	return r
}

// wrapper binds path and query parameters before calling the ServerInterface.
type wrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (wr *wrapper) bindPath(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (wr *wrapper) bindFilter(w http.ResponseWriter, r *http.Request, params *FilterParams) bool {
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &params.Q); err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return false
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", q, &params.Category); err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: "category", Err: err})
		return false
	}
	return true
}

func (wr *wrapper) getCatalog(w http.ResponseWriter, r *http.Request) {
	var catalog string
	if !wr.bindPath(w, r, "catalog", &catalog) {
		return
	}
	wr.handler.GetCatalog(w, r, catalog)
}

func (wr *wrapper) filterRecords(w http.ResponseWriter, r *http.Request) {
	var catalog string
	if !wr.bindPath(w, r, "catalog", &catalog) {
		return
	}
	var params FilterParams
	if !wr.bindFilter(w, r, &params) {
		return
	}
	wr.handler.FilterRecords(w, r, catalog, params)
}

func (wr *wrapper) listEvidence(w http.ResponseWriter, r *http.Request) {
	var screen string
	if !wr.bindPath(w, r, "screen", &screen) {
		return
	}
	var params FilterParams
	if !wr.bindFilter(w, r, &params) {
		return
	}
	wr.handler.ListEvidence(w, r, screen, params)
}

func (wr *wrapper) screenOp(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var screen string
		if !wr.bindPath(w, r, "screen", &screen) {
			return
		}
		fn(w, r, screen)
	}
}

func (wr *wrapper) screenItemOp(fn func(http.ResponseWriter, *http.Request, string, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var screen, id string
		if !wr.bindPath(w, r, "screen", &screen) || !wr.bindPath(w, r, "id", &id) {
			return
		}
		fn(w, r, screen, id)
	}
}
