package http

import (
	"net/http"

	"github.com/atinyakov/SecureVault/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler serving the SecureVault local API.
// It applies JSON content-type enforcement and request logging, and mounts
// the session and vault endpoints under /api.
//
// Routes:
//
//	GET    /api/session                     → current state
//	POST   /api/session/signup              → sessionHandler.SignUp
//	POST   /api/session/signin              → sessionHandler.SignIn
//	POST   /api/session/quick               → sessionHandler.TryQuickAccess
//	POST   /api/session/quick/switch        → sessionHandler.SwitchToFullSignIn
//	POST   /api/session/pin                 → sessionHandler.EnrollQuickAccess
//	POST   /api/session/pin/skip            → sessionHandler.SkipQuickAccessSetup
//	POST   /api/session/pin/reset           → sessionHandler.RequestPinReset
//	POST   /api/session/lock                → sessionHandler.Lock
//	POST   /api/session/signout             → sessionHandler.SignOutFully
//	GET    /api/vault/{kind}/items          → vaultHandler.List
//	POST   /api/vault/{kind}/items          → vaultHandler.Add
//	DELETE /api/vault/{kind}/items/{id}     → vaultHandler.Delete
func NewRouter(
	sessionHandler *SessionHandler,
	vaultHandler *VaultHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.State)
			r.Post("/signup", sessionHandler.SignUp)
			r.Post("/signin", sessionHandler.SignIn)
			r.Post("/quick", sessionHandler.TryQuickAccess)
			r.Post("/quick/switch", sessionHandler.SwitchToFullSignIn)
			r.Post("/pin", sessionHandler.EnrollQuickAccess)
			r.Post("/pin/skip", sessionHandler.SkipQuickAccessSetup)
			r.Post("/pin/reset", sessionHandler.RequestPinReset)
			r.Post("/lock", sessionHandler.Lock)
			r.Post("/signout", sessionHandler.SignOutFully)
		})

		r.Route("/vault/{kind}/items", func(r chi.Router) {
			r.Get("/", vaultHandler.List)
			r.Post("/", vaultHandler.Add)
			r.Delete("/{id}", vaultHandler.Delete)
		})
	})

	return r
}
