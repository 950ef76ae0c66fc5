// Package service provides the session state machine and the vault
// business logic, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/SecureVault/internal/common"
	"github.com/atinyakov/SecureVault/internal/models"
)

// State is the session state of the running instance.
type State string

const (
	// StateUnauthenticatedFull requires a full email + credential sign-in.
	StateUnauthenticatedFull State = "unauthenticated_full"
	// StateUnauthenticatedQuick offers the quick-access prompt because a
	// usable remembered-device record exists.
	StateUnauthenticatedQuick State = "unauthenticated_quick"
	// StatePinSetup is authenticated but still deciding whether to enroll
	// a quick-access code.
	StatePinSetup State = "pin_setup"
	// StateAuthenticated grants full vault access.
	StateAuthenticated State = "authenticated"
)

// AccountRepository defines the persistence operations required by the
// session engine.
type AccountRepository interface {
	// CreateAccount registers a new account. Fails with
	// common.ErrDuplicateEmail when the email is taken.
	CreateAccount(ctx context.Context, name, email string, credentialHash []byte) (*models.Account, error)
	// FindByEmail looks up an account by exact email, common.ErrNotFound
	// when absent.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	// FindByID looks up an account by id, common.ErrNotFound when absent.
	FindByID(ctx context.Context, id string) (*models.Account, error)
	// SetQuickAccessCode overwrites the account's quick-access code and
	// returns the updated account.
	SetQuickAccessCode(ctx context.Context, id, code string) (*models.Account, error)
	// RememberedDevice returns the persisted remembered-device record,
	// common.ErrNotFound when none exists.
	RememberedDevice(ctx context.Context) (*models.RememberedDevice, error)
	// SaveRememberedDevice persists or refreshes the record.
	SaveRememberedDevice(ctx context.Context, d *models.RememberedDevice) error
	// DeleteRememberedDevice removes the record.
	DeleteRememberedDevice(ctx context.Context) error
}

// emailRe accepts the basic local@domain.tld shape.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// pinRe accepts exactly 4 ASCII digits.
var pinRe = regexp.MustCompile(`^[0-9]{4}$`)

// minCredentialLen is the minimum sign-in credential length.
const minCredentialLen = 6

// SessionEngine is the authentication state machine. It holds at most one
// active account at a time and only transitions on success; a failed
// operation leaves the state unchanged, except a quick-access attempt that
// finds no remembered device, which falls back to the full sign-in state.
//
// The engine is built for a single interactive user per process and is not
// safe for concurrent use.
type SessionEngine struct {
	repo            AccountRepository
	state           State
	activeAccountID string
}

// NewSessionEngine constructs the engine and resolves the initial state: the
// quick-access prompt when a persisted remembered device still names an
// account with an enrolled quick-access code, the full sign-in otherwise.
// A stale remembered device is discarded on the way.
func NewSessionEngine(ctx context.Context, repo AccountRepository) (*SessionEngine, error) {
	e := &SessionEngine{repo: repo, state: StateUnauthenticatedFull}

	d, err := repo.RememberedDevice(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load remembered device: %w", err)
	}

	acct, err := repo.FindByEmail(ctx, d.Email)
	if errors.Is(err, common.ErrNotFound) || (err == nil && acct.QuickAccessCode == "") {
		// Self-heal: the device record points nowhere usable.
		if err := repo.DeleteRememberedDevice(ctx); err != nil {
			return nil, fmt.Errorf("discard stale remembered device: %w", err)
		}
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve remembered device: %w", err)
	}

	e.state = StateUnauthenticatedQuick
	return e, nil
}

// State returns the current session state.
func (e *SessionEngine) State() State {
	return e.state
}

// ActiveAccountID returns the active account id and whether one is set.
func (e *SessionEngine) ActiveAccountID() (string, bool) {
	return e.activeAccountID, e.activeAccountID != ""
}

// ActiveAccount loads the active account, common.ErrNotAuthenticated when
// none is active.
func (e *SessionEngine) ActiveAccount(ctx context.Context) (*models.Account, error) {
	if e.activeAccountID == "" {
		return nil, common.ErrNotAuthenticated
	}
	return e.repo.FindByID(ctx, e.activeAccountID)
}

// SignUp registers a new account and moves to the quick-access enrollment
// decision. Every violated input rule is collected into one
// ValidationError; nothing is created unless all rules pass.
func (e *SessionEngine) SignUp(ctx context.Context, name, email, credential, confirmCredential string) (State, error) {
	if e.state != StateUnauthenticatedFull && e.state != StateUnauthenticatedQuick {
		return e.state, common.ErrInvalidState
	}

	verr := &common.ValidationError{}
	if name == "" {
		verr.Add("name", "name is required")
	}
	switch {
	case email == "":
		verr.Add("email", "email is required")
	case !emailRe.MatchString(email):
		verr.Add("email", "invalid email format")
	default:
		if _, err := e.repo.FindByEmail(ctx, email); err == nil {
			verr.Add("email", "email already registered")
		} else if !errors.Is(err, common.ErrNotFound) {
			return e.state, fmt.Errorf("check email: %w", err)
		}
	}
	switch {
	case credential == "":
		verr.Add("credential", "credential is required")
	case len(credential) < minCredentialLen:
		verr.Add("credential", fmt.Sprintf("credential must be at least %d characters", minCredentialLen))
	}
	if credential != confirmCredential {
		verr.Add("confirm_credential", "credentials do not match")
	}
	if err := verr.Err(); err != nil {
		return e.state, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return e.state, fmt.Errorf("hash credential: %w", err)
	}
	acct, err := e.repo.CreateAccount(ctx, name, email, hash)
	if err != nil {
		return e.state, err
	}

	e.activeAccountID = acct.ID
	e.state = StatePinSetup
	return e.state, nil
}

// SignIn authenticates with email and credential. An unknown email and a
// wrong credential both fail with common.ErrInvalidCredentials. An account
// that already enrolled a quick-access code gets its remembered device
// refreshed and lands in the authenticated state; otherwise the enrollment
// decision comes first.
func (e *SessionEngine) SignIn(ctx context.Context, email, credential string) (State, error) {
	if e.state != StateUnauthenticatedFull && e.state != StateUnauthenticatedQuick {
		return e.state, common.ErrInvalidState
	}

	verr := &common.ValidationError{}
	if email == "" {
		verr.Add("email", "email is required")
	}
	if credential == "" {
		verr.Add("credential", "credential is required")
	}
	if err := verr.Err(); err != nil {
		return e.state, err
	}

	acct, err := e.repo.FindByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return e.state, common.ErrInvalidCredentials
	}
	if err != nil {
		return e.state, fmt.Errorf("find account: %w", err)
	}
	if bcrypt.CompareHashAndPassword(acct.CredentialHash, []byte(credential)) != nil {
		return e.state, common.ErrInvalidCredentials
	}

	if acct.QuickAccessCode != "" {
		d := &models.RememberedDevice{Email: acct.Email, QuickAccessCode: acct.QuickAccessCode}
		if err := e.repo.SaveRememberedDevice(ctx, d); err != nil {
			return e.state, fmt.Errorf("remember device: %w", err)
		}
		e.activeAccountID = acct.ID
		e.state = StateAuthenticated
		return e.state, nil
	}

	e.activeAccountID = acct.ID
	e.state = StatePinSetup
	return e.state, nil
}

// EnrollQuickAccess sets the active account's quick-access code and
// persists the remembered device. Valid only while deciding on enrollment.
func (e *SessionEngine) EnrollQuickAccess(ctx context.Context, pin, confirmPin string) (State, error) {
	if e.state != StatePinSetup {
		return e.state, common.ErrInvalidState
	}

	verr := &common.ValidationError{}
	switch {
	case pin == "":
		verr.Add("pin", "PIN is required")
	case !pinRe.MatchString(pin):
		verr.Add("pin", "PIN must be exactly 4 digits")
	}
	if pin != confirmPin {
		verr.Add("confirm_pin", "PINs do not match")
	}
	if err := verr.Err(); err != nil {
		return e.state, err
	}

	acct, err := e.repo.SetQuickAccessCode(ctx, e.activeAccountID, pin)
	if err != nil {
		return e.state, fmt.Errorf("set quick access code: %w", err)
	}
	d := &models.RememberedDevice{Email: acct.Email, QuickAccessCode: pin}
	if err := e.repo.SaveRememberedDevice(ctx, d); err != nil {
		return e.state, fmt.Errorf("remember device: %w", err)
	}

	e.state = StateAuthenticated
	return e.state, nil
}

// SkipQuickAccessSetup declines enrollment and opens the vault. No
// remembered device is created or updated.
func (e *SessionEngine) SkipQuickAccessSetup() (State, error) {
	if e.state != StatePinSetup {
		return e.state, common.ErrInvalidState
	}
	e.state = StateAuthenticated
	return e.state, nil
}

// TryQuickAccess authenticates with the 4-digit code against the account
// named by the remembered device. When the quick-access path turns out to be
// unusable the device record is discarded and the state falls back to the
// full sign-in; a plain code mismatch leaves the state unchanged.
func (e *SessionEngine) TryQuickAccess(ctx context.Context, pin string) (State, error) {
	if e.state != StateUnauthenticatedQuick {
		return e.state, common.ErrInvalidState
	}

	acct, err := e.rememberedAccount(ctx)
	if err != nil {
		return e.state, err
	}
	if acct.QuickAccessCode != pin {
		return e.state, common.ErrInvalidCredentials
	}

	e.activeAccountID = acct.ID
	e.state = StateAuthenticated
	return e.state, nil
}

// SwitchToFullSignIn leaves the quick-access prompt for the full sign-in
// form. The remembered device is preserved.
func (e *SessionEngine) SwitchToFullSignIn() (State, error) {
	if e.state != StateUnauthenticatedQuick {
		return e.state, common.ErrInvalidState
	}
	e.state = StateUnauthenticatedFull
	return e.state, nil
}

// RequestPinReset moves to the enrollment state so a new quick-access code
// can overwrite the current one. From the quick-access prompt the account is
// resolved through the remembered device; from the authenticated state the
// active account is used.
func (e *SessionEngine) RequestPinReset(ctx context.Context) (State, error) {
	switch e.state {
	case StateUnauthenticatedQuick:
		acct, err := e.rememberedAccount(ctx)
		if err != nil {
			return e.state, err
		}
		e.activeAccountID = acct.ID
		e.state = StatePinSetup
		return e.state, nil
	case StateAuthenticated:
		e.state = StatePinSetup
		return e.state, nil
	}
	return e.state, common.ErrInvalidState
}

// Lock closes the vault but keeps the remembered device, so the next
// unlock can take the quick-access path if one is still enrolled.
func (e *SessionEngine) Lock(ctx context.Context) (State, error) {
	if e.state != StateAuthenticated {
		return e.state, common.ErrInvalidState
	}

	acct, err := e.repo.FindByID(ctx, e.activeAccountID)
	if err != nil {
		return e.state, fmt.Errorf("find active account: %w", err)
	}
	e.activeAccountID = ""
	e.state = StateUnauthenticatedFull

	d, err := e.repo.RememberedDevice(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return e.state, nil
	}
	if err != nil {
		return e.state, fmt.Errorf("load remembered device: %w", err)
	}
	if d.Email == acct.Email && acct.QuickAccessCode != "" {
		e.state = StateUnauthenticatedQuick
	}
	return e.state, nil
}

// SignOutFully forgets the device: it clears the active account, deletes
// the remembered device unconditionally, and returns to the full sign-in.
// Valid from any state.
func (e *SessionEngine) SignOutFully(ctx context.Context) (State, error) {
	if err := e.repo.DeleteRememberedDevice(ctx); err != nil {
		return e.state, fmt.Errorf("delete remembered device: %w", err)
	}
	e.activeAccountID = ""
	e.state = StateUnauthenticatedFull
	return e.state, nil
}

// rememberedAccount resolves the remembered device to a usable account.
// When the record is absent, or names a missing account or one without an
// enrolled code, the quick-access path is provably unusable: the record is
// discarded and the state forced to the full sign-in.
func (e *SessionEngine) rememberedAccount(ctx context.Context) (*models.Account, error) {
	d, err := e.repo.RememberedDevice(ctx)
	if errors.Is(err, common.ErrNotFound) {
		e.state = StateUnauthenticatedFull
		return nil, common.ErrNoRememberedDevice
	}
	if err != nil {
		return nil, fmt.Errorf("load remembered device: %w", err)
	}

	acct, err := e.repo.FindByEmail(ctx, d.Email)
	if errors.Is(err, common.ErrNotFound) || (err == nil && acct.QuickAccessCode == "") {
		if err := e.repo.DeleteRememberedDevice(ctx); err != nil {
			return nil, fmt.Errorf("discard stale remembered device: %w", err)
		}
		e.state = StateUnauthenticatedFull
		return nil, common.ErrNoRememberedDevice
	}
	if err != nil {
		return nil, fmt.Errorf("resolve remembered device: %w", err)
	}
	return acct, nil
}
