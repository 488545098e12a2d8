package screen

import (
	"fmt"
	"sync"
	"sync/atomic"

	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	"github.com/kailas-cloud/civica/internal/domain/contact"
	"github.com/kailas-cloud/civica/internal/domain/disclosure"
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/gate"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/domain/record"
)

// Kind distinguishes plain list screens from passphrase-gated vault screens.
type Kind string

// Screen kinds.
const (
	KindList  Kind = "list"
	KindVault Kind = "vault"
)

// ParseKind validates a kind; empty means list.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindList:
		return KindList, nil
	case KindVault:
		return KindVault, nil
	default:
		return "", fmt.Errorf("unknown screen kind %q", s)
	}
}

// View is the renderable state of a screen after an event.
type View struct {
	ID      string
	Kind    Kind
	Catalog string
	Query   query.Query
	Records []record.Record
	// Total is the catalog size before filtering.
	Total   int
	OpenIDs []string
	// Gate is empty for list screens.
	Gate gate.Status
	// Evidence holds the filtered vault items; nil while locked.
	Evidence []domev.Evidence
	// Contacts is the screen's trusted-contact list in insertion order.
	Contacts []contact.Contact
}

// screen owns the mutable state of one mounted view.
// mu serializes events; lastSeen is read by the janitor without mu.
type screen struct {
	mu         sync.Mutex
	id         string
	kind       Kind
	catalog    domcat.Catalog
	hasCatalog bool
	query      query.Query
	disclosure *disclosure.Map
	gate       *gate.Gate
	contacts   *contact.List
	lastSeen   atomic.Int64
}

// snapshot captures the event-mutable state of a screen.
type snapshot struct {
	query      query.Query
	disclosure *disclosure.Map
	contacts   *contact.List
	unlocked   bool
}

func (s *screen) snapshot() snapshot {
	snap := snapshot{
		query:      s.query,
		disclosure: s.disclosure.Clone(),
		contacts:   s.contacts.Clone(),
	}
	if s.gate != nil {
		snap.unlocked = s.gate.IsUnlocked()
	}
	return snap
}

// restore rolls back an event whose view could not be rendered.
func (s *screen) restore(snap snapshot) {
	s.query = snap.query
	s.disclosure = snap.disclosure
	s.contacts = snap.contacts
	if s.gate != nil && !snap.unlocked && s.gate.IsUnlocked() {
		s.gate.Lock()
	}
}

func (s *screen) allLabel() string {
	if !s.hasCatalog {
		return ""
	}
	return s.catalog.AllLabel()
}
