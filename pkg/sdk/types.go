package civica

import "time"

// AllCategories is the category value that disables category filtering.
const AllCategories = "ALL"

// Query holds filter criteria. An empty Category means AllCategories.
// Text is matched case-insensitively as a substring, without trimming.
type Query struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// CatalogInfo summarizes a loaded catalog.
type CatalogInfo struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	AllLabel   string   `json:"all_label,omitempty"`
	Accent     string   `json:"accent,omitempty"`
	Categories []string `json:"categories"`
	Records    int      `json:"records"`
}

// Detail is one labelled line of a record's expandable region.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record is a catalog entry as rendered on a screen.
type Record struct {
	ID       string            `json:"id"`
	Category string            `json:"category,omitempty"`
	Fields   map[string]string `json:"fields"`
	Details  []Detail          `json:"details,omitempty"`
	// Open reports whether the record's details are expanded on the screen.
	Open bool `json:"open,omitempty"`
}

// ScreenKind distinguishes plain list screens from vault screens.
type ScreenKind string

// Screen kinds.
const (
	ScreenList  ScreenKind = "list"
	ScreenVault ScreenKind = "vault"
)

// GateStatus is the passphrase gate state of a vault screen.
type GateStatus string

// Gate states.
const (
	GateLocked   GateStatus = "locked"
	GateUnlocked GateStatus = "unlocked"
)

// UnlockResult is the outcome of a passphrase submission.
type UnlockResult string

// Unlock outcomes. Rejected is not an error.
const (
	Unlocked UnlockResult = "unlocked"
	Rejected UnlockResult = "rejected"
)

// EvidenceKind is the media type of a vault item.
type EvidenceKind string

// Evidence kinds.
const (
	EvidenceImage EvidenceKind = "image"
	EvidenceAudio EvidenceKind = "audio"
	EvidenceText  EvidenceKind = "text"
)

// Evidence is a decrypted vault item.
type Evidence struct {
	ID         string
	Title      string
	Kind       EvidenceKind
	SizeBytes  int64
	Note       string
	RecordedAt time.Time
	Open       bool
}

// EvidenceInput describes a new vault item. Zero RecordedAt means now.
type EvidenceInput struct {
	Title      string
	Kind       EvidenceKind
	SizeBytes  int64
	Note       string
	RecordedAt time.Time
}

// Contact is a trusted person on a screen's contact list.
type Contact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// View is everything a front end needs to render a screen.
type View struct {
	ScreenID string
	Kind     ScreenKind
	Catalog  string
	Query    Query
	// Records are the visible records in catalog order.
	Records []Record
	// Total is the catalog size before filtering.
	Total   int
	OpenIDs []string
	// Gate is empty for list screens.
	Gate GateStatus
	// Evidence is nil while the vault is locked.
	Evidence []Evidence
	// Contacts starts from the catalog's seed list and is owned by the screen.
	Contacts []Contact
}
