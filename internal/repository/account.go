// Package repository provides persistence for accounts, their secret
// collections, and the remembered-device record on top of a kv.Store.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/SecureVault/internal/common"
	"github.com/atinyakov/SecureVault/internal/kv"
	"github.com/atinyakov/SecureVault/internal/models"
)

// Key layout inside the kv.Store. Accounts are keyed by email, with an
// id-to-email index so lookups by account id stay a single Get.
const (
	accountKeyPrefix     = "account:"
	accountIDKeyPrefix   = "account-id:"
	collectionsKeyPrefix = "collections:"
	deviceKey            = "remembered-device"
)

// AccountStore persists accounts and collections as JSON records. Every
// mutation is a full read-modify-write of the affected record, committed to
// the kv.Store before the call returns. The design assumes a single writer
// per store.
type AccountStore struct {
	// KV is the durable key-value store records are committed to.
	KV kv.Store
}

// NewAccountStore creates an AccountStore backed by the given kv.Store.
func NewAccountStore(store kv.Store) *AccountStore {
	return &AccountStore{KV: store}
}

// CreateAccount registers a new account under email. It fails with
// common.ErrDuplicateEmail when the email is already registered, matched
// case-sensitively. On success the account also owns a fresh set of empty
// collections.
//
// The empty collections and the id index are written before the account
// record itself, so a crash mid-create never leaves a registered account
// without its supporting records.
func (s *AccountStore) CreateAccount(ctx context.Context, name, email string, credentialHash []byte) (*models.Account, error) {
	_, exists, err := s.KV.Get(ctx, accountKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, common.ErrDuplicateEmail
	}

	acct := &models.Account{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		CredentialHash: credentialHash,
		CreatedAt:      time.Now(),
	}

	if err := s.putJSON(ctx, collectionsKeyPrefix+acct.ID, &models.Collections{}); err != nil {
		return nil, fmt.Errorf("init collections: %w", err)
	}
	if err := s.KV.Set(ctx, accountIDKeyPrefix+acct.ID, []byte(email)); err != nil {
		return nil, fmt.Errorf("index account id: %w", err)
	}
	if err := s.putJSON(ctx, accountKeyPrefix+email, acct); err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	return acct, nil
}

// FindByEmail looks up an account by its exact email. Returns
// common.ErrNotFound when no such account exists.
func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acct models.Account
	found, err := s.getJSON(ctx, accountKeyPrefix+email, &acct)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !found {
		return nil, common.ErrNotFound
	}
	return &acct, nil
}

// FindByID looks up an account through the id index. Returns
// common.ErrNotFound when the id is unknown.
func (s *AccountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	email, found, err := s.KV.Get(ctx, accountIDKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("resolve account id: %w", err)
	}
	if !found {
		return nil, common.ErrNotFound
	}
	return s.FindByEmail(ctx, string(email))
}

// SetQuickAccessCode overwrites the quick-access code of the account with
// the given id. Returns the updated account, or common.ErrNotFound when the
// id is unknown.
func (s *AccountStore) SetQuickAccessCode(ctx context.Context, id, code string) (*models.Account, error) {
	acct, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	acct.QuickAccessCode = code
	if err := s.putJSON(ctx, accountKeyPrefix+acct.Email, acct); err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	return acct, nil
}

// GetCollections returns the secret collections owned by the account with
// the given id. An existing account without a collections record gets empty
// collections, never an error.
func (s *AccountStore) GetCollections(ctx context.Context, accountID string) (*models.Collections, error) {
	if _, err := s.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	var c models.Collections
	found, err := s.getJSON(ctx, collectionsKeyPrefix+accountID, &c)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	if !found {
		return &models.Collections{}, nil
	}
	return &c, nil
}

// ReplaceCollections overwrites the account's collections wholesale.
func (s *AccountStore) ReplaceCollections(ctx context.Context, accountID string, c *models.Collections) error {
	if _, err := s.FindByID(ctx, accountID); err != nil {
		return err
	}
	if err := s.putJSON(ctx, collectionsKeyPrefix+accountID, c); err != nil {
		return fmt.Errorf("store collections: %w", err)
	}
	return nil
}

// RememberedDevice returns the persisted remembered-device record, or
// common.ErrNotFound when none exists.
func (s *AccountStore) RememberedDevice(ctx context.Context) (*models.RememberedDevice, error) {
	var d models.RememberedDevice
	found, err := s.getJSON(ctx, deviceKey, &d)
	if err != nil {
		return nil, fmt.Errorf("load remembered device: %w", err)
	}
	if !found {
		return nil, common.ErrNotFound
	}
	return &d, nil
}

// SaveRememberedDevice persists (or refreshes) the remembered-device record.
func (s *AccountStore) SaveRememberedDevice(ctx context.Context, d *models.RememberedDevice) error {
	if err := s.putJSON(ctx, deviceKey, d); err != nil {
		return fmt.Errorf("store remembered device: %w", err)
	}
	return nil
}

// DeleteRememberedDevice removes the remembered-device record. Removing an
// absent record is not an error.
func (s *AccountStore) DeleteRememberedDevice(ctx context.Context) error {
	if err := s.KV.Delete(ctx, deviceKey); err != nil {
		return fmt.Errorf("delete remembered device: %w", err)
	}
	return nil
}

func (s *AccountStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, found, err := s.KV.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (s *AccountStore) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.KV.Set(ctx, key, data)
}
