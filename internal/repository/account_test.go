package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/SecureVault/internal/common"
	"github.com/atinyakov/SecureVault/internal/kv"
	"github.com/atinyakov/SecureVault/internal/models"
)

func newTestStore() *AccountStore {
	return NewAccountStore(kv.NewMemoryStore())
}

func TestCreateAccount_Success(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "Alice", "alice@x.com", []byte("hash"))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if acct.ID == "" {
		t.Errorf("expected a generated account id")
	}
	if acct.Name != "Alice" || acct.Email != "alice@x.com" {
		t.Errorf("unexpected account: %+v", acct)
	}
	if acct.QuickAccessCode != "" {
		t.Errorf("new account must not have a quick access code")
	}
	if acct.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	// the new account owns empty collections
	c, err := s.GetCollections(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetCollections failed: %v", err)
	}
	if len(c.Credentials) != 0 || len(c.Documents) != 0 || len(c.Notes) != 0 {
		t.Errorf("expected empty collections, got %+v", c)
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.CreateAccount(ctx, "Alice", "alice@x.com", []byte("h1")); err != nil {
		t.Fatalf("first CreateAccount failed: %v", err)
	}
	_, err := s.CreateAccount(ctx, "Other", "alice@x.com", []byte("h2"))
	if !errors.Is(err, common.ErrDuplicateEmail) {
		t.Errorf("error = %v; want ErrDuplicateEmail", err)
	}
}

func TestCreateAccount_EmailIsCaseSensitive(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.CreateAccount(ctx, "Alice", "alice@x.com", []byte("h1")); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if _, err := s.CreateAccount(ctx, "Alice", "Alice@x.com", []byte("h2")); err != nil {
		t.Errorf("different-case email should register separately, got %v", err)
	}
}

func TestFindByEmail(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, "Alice", "alice@x.com", []byte("hash"))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	found, err := s.FindByEmail(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("FindByEmail id = %q; want %q", found.ID, created.ID)
	}

	if _, err := s.FindByEmail(ctx, "nobody@x.com"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("error = %v; want ErrNotFound", err)
	}
}

func TestFindByID(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, "Alice", "alice@x.com", []byte("hash"))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	found, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Email != "alice@x.com" {
		t.Errorf("FindByID email = %q; want %q", found.Email, "alice@x.com")
	}

	if _, err := s.FindByID(ctx, "unknown"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("error = %v; want ErrNotFound", err)
	}
}

func TestSetQuickAccessCode(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, "Alice", "alice@x.com", []byte("hash"))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	updated, err := s.SetQuickAccessCode(ctx, created.ID, "1234")
	if err != nil {
		t.Fatalf("SetQuickAccessCode failed: %v", err)
	}
	if updated.QuickAccessCode != "1234" {
		t.Errorf("QuickAccessCode = %q; want %q", updated.QuickAccessCode, "1234")
	}

	// the overwrite is durable
	reloaded, err := s.FindByEmail(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if reloaded.QuickAccessCode != "1234" {
		t.Errorf("persisted QuickAccessCode = %q; want %q", reloaded.QuickAccessCode, "1234")
	}

	// second enrollment overwrites the first
	updated, err = s.SetQuickAccessCode(ctx, created.ID, "9999")
	if err != nil {
		t.Fatalf("SetQuickAccessCode failed: %v", err)
	}
	if updated.QuickAccessCode != "9999" {
		t.Errorf("QuickAccessCode = %q; want %q", updated.QuickAccessCode, "9999")
	}

	if _, err := s.SetQuickAccessCode(ctx, "unknown", "1234"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("error = %v; want ErrNotFound", err)
	}
}

func TestReplaceCollections_RoundTrip(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "Alice", "alice@x.com", []byte("hash"))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	c := &models.Collections{
		Credentials: []models.SecretItem{{ID: "1", Title: "Bank", Content: "user:pw"}},
		Notes:       []models.SecretItem{{ID: "2", Title: "Memo", Content: "text"}},
	}
	if err := s.ReplaceCollections(ctx, acct.ID, c); err != nil {
		t.Fatalf("ReplaceCollections failed: %v", err)
	}

	got, err := s.GetCollections(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetCollections failed: %v", err)
	}
	if len(got.Credentials) != 1 || got.Credentials[0].Title != "Bank" {
		t.Errorf("unexpected credentials: %+v", got.Credentials)
	}
	if len(got.Notes) != 1 || got.Notes[0].ID != "2" {
		t.Errorf("unexpected notes: %+v", got.Notes)
	}
	if len(got.Documents) != 0 {
		t.Errorf("unexpected documents: %+v", got.Documents)
	}
}

func TestCollections_UnknownAccount(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.GetCollections(ctx, "unknown"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetCollections error = %v; want ErrNotFound", err)
	}
	if err := s.ReplaceCollections(ctx, "unknown", &models.Collections{}); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("ReplaceCollections error = %v; want ErrNotFound", err)
	}
}

func TestRememberedDevice_Lifecycle(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.RememberedDevice(ctx); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("error = %v; want ErrNotFound", err)
	}

	d := &models.RememberedDevice{Email: "alice@x.com", QuickAccessCode: "1234"}
	if err := s.SaveRememberedDevice(ctx, d); err != nil {
		t.Fatalf("SaveRememberedDevice failed: %v", err)
	}

	got, err := s.RememberedDevice(ctx)
	if err != nil {
		t.Fatalf("RememberedDevice failed: %v", err)
	}
	if got.Email != d.Email || got.QuickAccessCode != d.QuickAccessCode {
		t.Errorf("RememberedDevice = %+v; want %+v", got, d)
	}

	if err := s.DeleteRememberedDevice(ctx); err != nil {
		t.Fatalf("DeleteRememberedDevice failed: %v", err)
	}
	if _, err := s.RememberedDevice(ctx); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("error after delete = %v; want ErrNotFound", err)
	}
	// deleting twice is fine
	if err := s.DeleteRememberedDevice(ctx); err != nil {
		t.Errorf("second DeleteRememberedDevice failed: %v", err)
	}
}
