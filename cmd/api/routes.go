package main

import (
	"log"
	"net/http"

	httphandlers "finsync/internal/interfaces/http"
	"finsync/internal/shared/config"
	"finsync/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("GET /health", httphandlers.HandleHealth)
	mux.HandleFunc("GET /ready", httphandlers.HandleReady(deps.DB))

	// Protected routes
	authMiddleware := middleware.Auth(deps.Verifier, deps.UserService)
	protect := func(h http.HandlerFunc) http.Handler {
		return middleware.NoStore(authMiddleware(h))
	}

	mux.Handle("POST /api/plaid/link-token", protect(deps.PlaidHandler.HandleCreateLinkToken))
	mux.Handle("POST /api/plaid/exchange-public-token", protect(deps.PlaidHandler.HandleExchangePublicToken))
	mux.Handle("GET /api/plaid/accounts", protect(deps.PlaidHandler.HandleListAccounts))
	mux.Handle("GET /api/plaid/connections", protect(deps.PlaidHandler.HandleListConnections))
	mux.Handle("DELETE /api/plaid/connections/{id}", protect(deps.PlaidHandler.HandleDeleteConnection))
	mux.Handle("POST /api/plaid/items/{itemID}/sync", protect(deps.PlaidHandler.HandleSyncItem))

	mux.Handle("GET /api/users/me", protect(deps.UserHandler.HandleMe))
	mux.Handle("/api/accounts/{id}", protect(deps.AccountHandler.HandleAccountByID))
	mux.Handle("GET /api/transactions", protect(deps.TransactionHandler.HandleListTransactions))
	mux.Handle("/api/households", protect(deps.HouseholdHandler.HandleHouseholds))
	mux.Handle("/api/households/{$}", protect(deps.HouseholdHandler.HandleHouseholds))
	mux.Handle("GET /api/households/{id}", protect(deps.HouseholdHandler.HandleHouseholdByID))
	mux.Handle("POST /api/households/{id}/accounts", protect(deps.HouseholdHandler.HandleLinkAccount))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(middleware.Tracing(mux)))

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		log.Println("TLS security middleware enabled (HSTS)")
	}

	return handler
}
