// Package main initializes and starts the SecureVault local API server,
// setting up configuration, logging, the persisted store, repositories,
// services, and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"

	nethttp "net/http"

	"github.com/atinyakov/SecureVault/internal/config"
	"github.com/atinyakov/SecureVault/internal/kv"
	"github.com/atinyakov/SecureVault/internal/logger"
	"github.com/atinyakov/SecureVault/internal/repository"
	"github.com/atinyakov/SecureVault/internal/server/handler/http"
	"github.com/atinyakov/SecureVault/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Open the persisted vault store selected by configuration.
	store, err := openStore(options)
	if err != nil {
		zapLogger.Fatal("cannot open vault store", zap.Error(err))
	}

	// Initialize the account repository over the store.
	accounts := repository.NewAccountStore(store)

	// Initialize business-logic services. The session engine resolves its
	// initial state from the persisted remembered-device record.
	sessions, err := service.NewSessionEngine(context.Background(), accounts)
	if err != nil {
		zapLogger.Fatal("cannot init session engine", zap.Error(err))
	}
	vault := service.NewVaultService(accounts, sessions)

	// Create HTTP handlers for session and vault endpoints.
	sessionHandler := &http.SessionHandler{Sessions: sessions}
	vaultHandler := &http.VaultHandler{Vault: vault}

	// Build the router with middleware and routes.
	router := http.NewRouter(sessionHandler, vaultHandler, zapLogger)

	// Create and start the HTTP server. The API is meant for loopback use;
	// transport security is out of scope.
	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server",
		zap.String("addr", options.Addr),
		zap.String("backend", options.Backend),
	)
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

// openStore opens the kv store named by the configured backend.
func openStore(options *config.Options) (kv.Store, error) {
	switch options.Backend {
	case config.BackendFile:
		return kv.NewFileStore(options.FilePath)
	case config.BackendSQLite:
		db, err := kv.OpenSQLite(options.FilePath)
		if err != nil {
			return nil, err
		}
		return kv.NewSQLiteStore(db), nil
	case config.BackendPostgres:
		db, err := kv.OpenPostgres(options.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return kv.NewPostgresStore(db), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", options.Backend)
}
