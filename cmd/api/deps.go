package main

import (
	"log"

	"finsync/internal/domain/account"
	"finsync/internal/domain/connection"
	"finsync/internal/domain/household"
	"finsync/internal/domain/itemsync"
	"finsync/internal/domain/transaction"
	"finsync/internal/domain/user"
	"finsync/internal/infrastructure/crypto"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/infrastructure/postgres"
	"finsync/internal/infrastructure/redis"
	httphandlers "finsync/internal/interfaces/http"
	"finsync/internal/shared/auth"
	"finsync/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB    *postgres.DB
	Redis *redis.Client

	// Handlers
	PlaidHandler       *httphandlers.PlaidHandler
	UserHandler        *httphandlers.UserHandler
	AccountHandler     *httphandlers.AccountHandler
	TransactionHandler *httphandlers.TransactionHandler
	HouseholdHandler   *httphandlers.HouseholdHandler

	// Auth
	Verifier    *auth.Verifier
	UserService *user.Service

	// Sync (for scheduler)
	SyncService *itemsync.Service
	Connections *postgres.ConnectionRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	db, err := postgres.Open(postgres.Dialect(cfg.Database.Driver), cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	deps.DB = db
	log.Printf("Connected to %s database", cfg.Database.Driver)

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		deps.Close()
		return nil, err
	}

	plaidClient, err := plaid.NewClient(plaid.Config{
		ClientID:     cfg.Plaid.ClientID,
		Secret:       cfg.Plaid.Secret,
		Environment:  cfg.Plaid.Environment,
		ClientName:   cfg.Plaid.ClientName,
		CountryCodes: cfg.Plaid.CountryCodes,
		PageSize:     cfg.Plaid.PageSize,
	})
	if err != nil {
		deps.Close()
		return nil, err
	}

	verifier, err := auth.NewAuth0Verifier(cfg.Auth0.Domain, cfg.Auth0.Audience)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Verifier = verifier

	// Cross-process sync lock is optional; without it syncs are only
	// coalesced within this process.
	var locker itemsync.Locker
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Redis = rdb
		locker = redis.NewLocker(rdb.Client)
		log.Printf("Sync lock backed by redis at %s", cfg.Redis.Addr)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db, encryptor)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	householdRepo := postgres.NewHouseholdRepository(db)
	store := postgres.NewReconciliationStore(db, connectionRepo)

	// Domain services
	userService := user.NewService(userRepo)
	accountService := account.NewService(accountRepo)
	connectionService := connection.NewService(connectionRepo, plaidClient)
	transactionService := transaction.NewService(transactionRepo)
	householdService := household.NewService(householdRepo, accountService)
	syncService := itemsync.NewService(plaidClient, store,
		itemsync.NewGuard(locker, cfg.Sync.LockTTL, cfg.Sync.RunTimeout),
		itemsync.Options{MaxPages: cfg.Sync.MaxPages, PageSize: cfg.Plaid.PageSize},
	)

	deps.UserService = userService
	deps.SyncService = syncService
	deps.Connections = connectionRepo

	deps.PlaidHandler = httphandlers.NewPlaidHandler(connectionService, accountService, syncService)
	deps.UserHandler = httphandlers.NewUserHandler(userService)
	deps.AccountHandler = httphandlers.NewAccountHandler(accountService)
	deps.TransactionHandler = httphandlers.NewTransactionHandler(transactionService)
	deps.HouseholdHandler = httphandlers.NewHouseholdHandler(householdService)

	return deps, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.Verifier != nil {
		d.Verifier.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			log.Printf("Error closing redis: %v", err)
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
