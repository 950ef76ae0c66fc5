// Package http provides the local HTTP API over the session engine and the
// vault service: the handlers, the error mapping, and the router.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/SecureVault/internal/common"
	"github.com/atinyakov/SecureVault/internal/service"
)

// Sessions defines the session-engine operations required by the HTTP
// handlers. Every transition returns the resulting state plus an optional
// structured error for display.
type Sessions interface {
	SignUp(ctx context.Context, name, email, credential, confirmCredential string) (service.State, error)
	SignIn(ctx context.Context, email, credential string) (service.State, error)
	EnrollQuickAccess(ctx context.Context, pin, confirmPin string) (service.State, error)
	SkipQuickAccessSetup() (service.State, error)
	TryQuickAccess(ctx context.Context, pin string) (service.State, error)
	SwitchToFullSignIn() (service.State, error)
	RequestPinReset(ctx context.Context) (service.State, error)
	Lock(ctx context.Context) (service.State, error)
	SignOutFully(ctx context.Context) (service.State, error)
	State() service.State
}

// SessionHandler handles HTTP requests that drive the session state machine.
type SessionHandler struct {
	// Sessions performs the underlying session transitions.
	Sessions Sessions
}

// errorView is the JSON shape of a structured operation error.
type errorView struct {
	Kind    string              `json:"kind"`
	Message string              `json:"message"`
	Fields  []common.FieldError `json:"fields,omitempty"`
}

// sessionResponse is the JSON shape of every session endpoint reply.
type sessionResponse struct {
	State service.State `json:"state"`
	Error *errorView    `json:"error,omitempty"`
}

// SignUpRequest represents the JSON payload for account registration.
type SignUpRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Credential        string `json:"credential"`
	ConfirmCredential string `json:"confirm_credential"`
}

// SignInRequest represents the JSON payload for a full sign-in.
type SignInRequest struct {
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

// PinRequest represents the JSON payload carrying a quick-access code, with
// the confirmation field used only by enrollment.
type PinRequest struct {
	Pin        string `json:"pin"`
	ConfirmPin string `json:"confirm_pin"`
}

// State handles GET requests for the current session state.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	writeSessionResult(w, h.Sessions.State(), nil)
}

// SignUp handles account registration requests.
func (h *SessionHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	state, err := h.Sessions.SignUp(r.Context(), req.Name, req.Email, req.Credential, req.ConfirmCredential)
	writeSessionResult(w, state, err)
}

// SignIn handles full email + credential sign-in requests.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	state, err := h.Sessions.SignIn(r.Context(), req.Email, req.Credential)
	writeSessionResult(w, state, err)
}

// EnrollQuickAccess handles quick-access code enrollment requests.
func (h *SessionHandler) EnrollQuickAccess(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	state, err := h.Sessions.EnrollQuickAccess(r.Context(), req.Pin, req.ConfirmPin)
	writeSessionResult(w, state, err)
}

// SkipQuickAccessSetup handles requests that decline enrollment.
func (h *SessionHandler) SkipQuickAccessSetup(w http.ResponseWriter, r *http.Request) {
	state, err := h.Sessions.SkipQuickAccessSetup()
	writeSessionResult(w, state, err)
}

// TryQuickAccess handles quick-access sign-in requests.
func (h *SessionHandler) TryQuickAccess(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	state, err := h.Sessions.TryQuickAccess(r.Context(), req.Pin)
	writeSessionResult(w, state, err)
}

// SwitchToFullSignIn handles requests to leave the quick-access prompt.
func (h *SessionHandler) SwitchToFullSignIn(w http.ResponseWriter, r *http.Request) {
	state, err := h.Sessions.SwitchToFullSignIn()
	writeSessionResult(w, state, err)
}

// RequestPinReset handles requests to re-enroll the quick-access code.
func (h *SessionHandler) RequestPinReset(w http.ResponseWriter, r *http.Request) {
	state, err := h.Sessions.RequestPinReset(r.Context())
	writeSessionResult(w, state, err)
}

// Lock handles requests to close the vault while keeping the remembered
// device.
func (h *SessionHandler) Lock(w http.ResponseWriter, r *http.Request) {
	state, err := h.Sessions.Lock(r.Context())
	writeSessionResult(w, state, err)
}

// SignOutFully handles requests to forget the device entirely.
func (h *SessionHandler) SignOutFully(w http.ResponseWriter, r *http.Request) {
	state, err := h.Sessions.SignOutFully(r.Context())
	writeSessionResult(w, state, err)
}

// writeSessionResult writes the resulting state and, on failure, the
// structured error alongside the matching HTTP status.
func writeSessionResult(w http.ResponseWriter, state service.State, err error) {
	w.Header().Set("Content-Type", "application/json")
	resp := sessionResponse{State: state}
	if err != nil {
		resp.Error = viewOf(err)
		w.WriteHeader(statusFor(err))
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// viewOf maps an operation error to its JSON representation.
func viewOf(err error) *errorView {
	if ve, ok := common.AsValidation(err); ok {
		return &errorView{Kind: "validation", Message: ve.Error(), Fields: ve.Fields}
	}
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return &errorView{Kind: "invalid_credentials", Message: err.Error()}
	case errors.Is(err, common.ErrDuplicateEmail):
		return &errorView{Kind: "duplicate_email", Message: err.Error()}
	case errors.Is(err, common.ErrNoRememberedDevice):
		return &errorView{Kind: "no_remembered_device", Message: err.Error()}
	case errors.Is(err, common.ErrNotAuthenticated):
		return &errorView{Kind: "not_authenticated", Message: err.Error()}
	case errors.Is(err, common.ErrInvalidState):
		return &errorView{Kind: "invalid_state", Message: err.Error()}
	}
	return &errorView{Kind: "internal", Message: "internal error"}
}

// statusFor maps an operation error to an HTTP status code.
func statusFor(err error) int {
	if _, ok := common.AsValidation(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, common.ErrNoRememberedDevice):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}
