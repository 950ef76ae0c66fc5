package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/atinyakov/SecureVault/internal/common"
	"github.com/atinyakov/SecureVault/internal/models"
)

// VaultRepository defines the persistence operations required by the vault
// service.
type VaultRepository interface {
	// GetCollections returns the account's collections, empty ones for an
	// existing account that has none yet.
	GetCollections(ctx context.Context, accountID string) (*models.Collections, error)
	// ReplaceCollections overwrites the account's collections wholesale.
	ReplaceCollections(ctx context.Context, accountID string, c *models.Collections) error
}

// Session exposes the part of the session engine the vault needs: whose
// vault is open, and whether it is open at all.
type Session interface {
	State() State
	ActiveAccountID() (string, bool)
}

// VaultService implements CRUD over the active account's secret
// collections. Every operation requires the authenticated state and fails
// with common.ErrNotAuthenticated otherwise.
type VaultService struct {
	repo    VaultRepository
	session Session

	// lastID guards item id monotonicity when two items are added within
	// the same clock tick.
	mu     sync.Mutex
	lastID int64
}

// NewVaultService constructs a VaultService over the given repository and
// session.
func NewVaultService(repo VaultRepository, session Session) *VaultService {
	return &VaultService{repo: repo, session: session}
}

// ListItems returns the items of the named collection in insertion order.
func (v *VaultService) ListItems(ctx context.Context, kind models.CollectionKind) ([]models.SecretItem, error) {
	accountID, err := v.authenticated()
	if err != nil {
		return nil, err
	}
	c, err := v.repo.GetCollections(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return c.Items(kind), nil
}

// AddItem validates, timestamps, and appends a new item to the end of the
// named collection, then persists the whole collection set. Title and
// content violations are collected into one ValidationError.
func (v *VaultService) AddItem(ctx context.Context, kind models.CollectionKind, title, content, description string) (*models.SecretItem, error) {
	accountID, err := v.authenticated()
	if err != nil {
		return nil, err
	}

	verr := &common.ValidationError{}
	if title == "" {
		verr.Add("title", "title is required")
	}
	if content == "" {
		verr.Add("content", "content is required")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	c, err := v.repo.GetCollections(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item := models.SecretItem{
		ID:          v.nextItemID(now),
		Title:       title,
		Content:     content,
		Description: description,
		CreatedAt:   now,
	}
	c.SetItems(kind, append(c.Items(kind), item))

	if err := v.repo.ReplaceCollections(ctx, accountID, c); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes the item with the given id from the named collection.
// Deleting an absent id is a no-op, so repeated deletes are safe.
func (v *VaultService) DeleteItem(ctx context.Context, kind models.CollectionKind, itemID string) error {
	accountID, err := v.authenticated()
	if err != nil {
		return err
	}

	c, err := v.repo.GetCollections(ctx, accountID)
	if err != nil {
		return err
	}

	items := c.Items(kind)
	kept := items[:0:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	c.SetItems(kind, kept)
	return v.repo.ReplaceCollections(ctx, accountID, c)
}

func (v *VaultService) authenticated() (string, error) {
	if v.session.State() != StateAuthenticated {
		return "", common.ErrNotAuthenticated
	}
	id, ok := v.session.ActiveAccountID()
	if !ok {
		return "", common.ErrNotAuthenticated
	}
	return id, nil
}

// nextItemID derives a creation-ordered id from the clock, bumped past the
// previous id when two items land on the same nanosecond.
func (v *VaultService) nextItemID(now time.Time) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := now.UnixNano()
	if id <= v.lastID {
		id = v.lastID + 1
	}
	v.lastID = id
	return strconv.FormatInt(id, 10)
}
