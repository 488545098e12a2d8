// Package contact models the trusted contacts of an emergency screen.
package contact

import (
	"fmt"

	"github.com/kailas-cloud/civica/internal/domain"
)

// Limits on contact attributes.
const (
	MaxNameLength   = 128
	MaxNumberLength = 32
	MaxContacts     = 50
)

// Contact is a trusted person to call or alert (immutable value object).
type Contact struct {
	id     string
	name   string
	number string
}

// New validates and creates a contact. Name and number must both be set;
// values are kept verbatim.
func New(id, name, number string) (Contact, error) {
	if id == "" {
		return Contact{}, fmt.Errorf("%w: id is required", domain.ErrInvalidContact)
	}
	if name == "" || number == "" {
		return Contact{}, fmt.Errorf("%w: name and number are required", domain.ErrInvalidContact)
	}
	if len(name) > MaxNameLength {
		return Contact{}, fmt.Errorf("%w: name too long (max %d)", domain.ErrInvalidContact, MaxNameLength)
	}
	if len(number) > MaxNumberLength {
		return Contact{}, fmt.Errorf("%w: number too long (max %d)", domain.ErrInvalidContact, MaxNumberLength)
	}
	return Contact{id: id, name: name, number: number}, nil
}

// ID returns the contact id.
func (c Contact) ID() string { return c.id }

// Name returns the display name.
func (c Contact) Name() string { return c.name }

// Number returns the phone number as entered.
func (c Contact) Number() string { return c.number }

// List is an ordered contact list owned by one screen. The zero value is empty.
type List struct {
	items []Contact
}

// NewList creates a list seeded with contacts in order.
func NewList(seed []Contact) *List {
	return &List{items: append([]Contact(nil), seed...)}
}

// Add appends c. Ids must be unique within the list.
func (l *List) Add(c Contact) error {
	if len(l.items) >= MaxContacts {
		return fmt.Errorf("%w: at most %d contacts", domain.ErrInvalidContact, MaxContacts)
	}
	for _, it := range l.items {
		if it.id == c.id {
			return fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidContact, c.id)
		}
	}
	l.items = append(l.items, c)
	return nil
}

// Remove deletes the contact with id.
func (l *List) Remove(id string) error {
	for i, it := range l.items {
		if it.id == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove %s: %w", id, domain.ErrContactNotFound)
}

// All returns a copy of the contacts in insertion order.
func (l *List) All() []Contact {
	return append([]Contact(nil), l.items...)
}

// Len returns the number of contacts.
func (l *List) Len() int { return len(l.items) }

// Clone returns an independent copy of the list.
func (l *List) Clone() *List {
	return NewList(l.items)
}
