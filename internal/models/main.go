// Package models defines the core data structures for accounts, secret
// items, and the remembered-device record.
package models

import (
	"fmt"
	"time"
)

// Account represents a registered vault owner.
type Account struct {
	// ID is the opaque unique identifier assigned at creation.
	ID string `json:"id"`
	// Name is the display name chosen at sign-up.
	Name string `json:"name"`
	// Email is the unique sign-in key, matched case-sensitively as entered.
	Email string `json:"email"`
	// CredentialHash is the bcrypt hash of the sign-in credential.
	CredentialHash []byte `json:"credential_hash"`
	// QuickAccessCode is the optional 4-digit secondary credential.
	// Empty until the owner enrolls one.
	QuickAccessCode string `json:"quick_access_code,omitempty"`
	// CreatedAt is the account creation timestamp, set once.
	CreatedAt time.Time `json:"created_at"`
}

// SecretItem holds one stored secret inside a typed collection.
type SecretItem struct {
	// ID is unique within the owning collection and sorts by creation time.
	ID string `json:"id"`
	// Title names the item. Never empty.
	Title string `json:"title"`
	// Content is the secret payload itself.
	Content string `json:"content"`
	// Description holds optional free-form metadata about the item.
	Description string `json:"description,omitempty"`
	// CreatedAt is the display timestamp, set once.
	CreatedAt time.Time `json:"created_at"`
}

// Collections groups an account's secret items by kind.
type Collections struct {
	Credentials []SecretItem `json:"credentials"`
	Documents   []SecretItem `json:"documents"`
	Notes       []SecretItem `json:"notes"`
}

// RememberedDevice is the persisted capability record that lets a future
// session take the quick-access path. It lives independently of the
// in-memory session state.
type RememberedDevice struct {
	Email           string `json:"email"`
	QuickAccessCode string `json:"quick_access_code"`
}

// CollectionKind selects one of the three typed secret collections.
type CollectionKind string

const (
	// KindCredentials is the collection of stored credentials.
	KindCredentials CollectionKind = "credentials"
	// KindDocuments is the collection of stored documents.
	KindDocuments CollectionKind = "documents"
	// KindNotes is the collection of free-form notes.
	KindNotes CollectionKind = "notes"
)

// ParseCollectionKind validates a caller-supplied kind selector.
func ParseCollectionKind(s string) (CollectionKind, error) {
	switch CollectionKind(s) {
	case KindCredentials, KindDocuments, KindNotes:
		return CollectionKind(s), nil
	}
	return "", fmt.Errorf("unknown collection kind %q", s)
}

// Items returns the collection selected by kind, nil for an unknown kind.
func (c *Collections) Items(kind CollectionKind) []SecretItem {
	switch kind {
	case KindCredentials:
		return c.Credentials
	case KindDocuments:
		return c.Documents
	case KindNotes:
		return c.Notes
	}
	return nil
}

// SetItems replaces the collection selected by kind.
func (c *Collections) SetItems(kind CollectionKind, items []SecretItem) {
	switch kind {
	case KindCredentials:
		c.Credentials = items
	case KindDocuments:
		c.Documents = items
	case KindNotes:
		c.Notes = items
	}
}
