package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"finsync/internal/domain/itemsync"
	"finsync/internal/infrastructure/crypto"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/infrastructure/postgres"
	"finsync/internal/infrastructure/redis"
	"finsync/internal/shared/config"
)

const usage = `finsync Admin CLI - Management commands for the finsync API

Usage:
  admin <command> [options]

Commands:
  migrate    Apply the database schema
  sync       Pull transactions from the aggregator for linked items

Examples:
  # Create or update the schema
  admin migrate

  # Sync a single item
  admin sync --item-id=item-abc

  # Sync several items
  admin sync --item-id=item-abc,item-def

  # Sync every linked item with higher concurrency
  admin sync --all --workers=8 --timeout=1h
`

const defaultWorkers = 4

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		runMigrate(os.Args[2:])
	case "sync":
		runSync(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	timeoutStr := fs.String("timeout", "1m", "Timeout for the operation (e.g., 30s, 5m)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.Open(postgres.Dialect(cfg.Database.Driver), cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema applied to %s database", cfg.Database.Driver)
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	itemIDStr := fs.String("item-id", "", "Item ID(s) to sync (comma-separated for multiple)")
	allItems := fs.Bool("all", false, "Sync every linked item")
	workers := fs.Int("workers", defaultWorkers, "Number of concurrent workers")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin sync [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin sync --item-id=item-abc")
		fmt.Println("  admin sync --all --workers=8 --timeout=1h")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *itemIDStr == "" && !*allItems {
		fmt.Println("Error: must specify --item-id or --all")
		fs.Usage()
		os.Exit(1)
	}
	if *workers < 1 {
		*workers = 1
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.Open(postgres.Dialect(cfg.Database.Driver), cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("Failed to create encryptor: %v", err)
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
		log.Fatalf("Failed to create aggregator client: %v", err)
	}

	// Share the API's lock so a manual run never overlaps a scheduled one.
	var locker itemsync.Locker
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		locker = redis.NewLocker(rdb.Client)
	}

	connectionRepo := postgres.NewConnectionRepository(db, encryptor)
	store := postgres.NewReconciliationStore(db, connectionRepo)
	syncService := itemsync.NewService(plaidClient, store,
		itemsync.NewGuard(locker, cfg.Sync.LockTTL, cfg.Sync.RunTimeout),
		itemsync.Options{MaxPages: cfg.Sync.MaxPages, PageSize: cfg.Plaid.PageSize},
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var itemIDs []string
	if *allItems {
		itemIDs, err = connectionRepo.ListItemIDs(ctx)
		if err != nil {
			log.Fatalf("Failed to list items: %v", err)
		}
		log.Printf("Found %d linked items", len(itemIDs))
	} else {
		itemIDs = parseItemIDs(*itemIDStr)
	}

	if len(itemIDs) == 0 {
		log.Println("No items to process")
		return
	}

	log.Printf("Starting sync for %d item(s) with %d workers", len(itemIDs), *workers)
	startTime := time.Now()

	results := syncItems(ctx, syncService, itemIDs, *workers)

	failed := 0
	for _, id := range itemIDs {
		r := results[id]
		if r.err != nil {
			failed++
		}
		printResult(id, r)
	}

	log.Printf("Sync completed in %v (%d failed)", time.Since(startTime), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// parseItemIDs splits a comma-separated list, dropping blanks and repeats.
func parseItemIDs(raw string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		ids = append(ids, p)
	}
	return ids
}

type syncOutcome struct {
	result *itemsync.Result
	err    error
}

func syncItems(ctx context.Context, svc *itemsync.Service, itemIDs []string, workers int) map[string]syncOutcome {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]syncOutcome, len(itemIDs))
		ids     = make(chan string)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				res, err := svc.SyncItem(ctx, id)
				mu.Lock()
				results[id] = syncOutcome{result: res, err: err}
				mu.Unlock()
			}
		}()
	}

	for _, id := range itemIDs {
		ids <- id
	}
	close(ids)
	wg.Wait()

	return results
}

func printResult(itemID string, o syncOutcome) {
	fmt.Printf("\n=== Item %s ===\n", itemID)
	if o.err != nil {
		if errors.Is(o.err, itemsync.ErrSyncInProgress) {
			fmt.Println("  Skipped: sync already in progress")
			return
		}
		fmt.Printf("  Error: %v\n", o.err)
		return
	}
	fmt.Printf("  Accounts synced:      %d\n", o.result.AccountsSynced)
	fmt.Printf("  Transactions synced:  %d\n", o.result.TransactionsSynced)
	fmt.Printf("  Transactions removed: %d\n", o.result.TransactionsRemoved)
	fmt.Printf("  Pages:                %d\n", o.result.Pages)
}
