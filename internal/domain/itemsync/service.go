package itemsync

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"finsync/internal/domain/connection"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/shared/errs"
)

var (
	syncTracer          = otel.Tracer("finsync/itemsync")
	syncMeter           = otel.Meter("finsync/itemsync")
	syncDuration, _     = syncMeter.Float64Histogram("itemsync.run.duration", metric.WithDescription("Item sync duration in seconds"), metric.WithUnit("s"))
	syncRuns, _         = syncMeter.Int64Counter("itemsync.run.total", metric.WithDescription("Item syncs by status"))
	syncPages, _        = syncMeter.Int64Counter("itemsync.pages", metric.WithDescription("Sync pages committed"))
	syncTransactions, _ = syncMeter.Int64Counter("itemsync.transactions", metric.WithDescription("Transactions processed by outcome"))
)

// Service drives the cursor loop for one item at a time.
type Service struct {
	client Client
	store  Store
	guard  *Guard
	opts   Options
}

// NewService wires the orchestrator. A nil guard gets an in-process one
// without a cross-process lock.
func NewService(client Client, store Store, guard *Guard, opts Options) *Service {
	if guard == nil {
		guard = NewGuard(nil, 0, 0)
	}
	return &Service{
		client: client,
		store:  store,
		guard:  guard,
		opts:   opts.withDefaults(),
	}
}

// SyncItem syncs accounts once, then pulls and commits transaction pages
// until the aggregator reports no more. Each page is committed together with
// its cursor, so a failed run keeps every page committed before the failure
// and returns the partial Result alongside the error.
func (s *Service) SyncItem(ctx context.Context, itemID string) (*Result, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, errs.Wrap(errs.ErrValidation, "sync item", fmt.Errorf("item id is required"))
	}
	return s.guard.Do(ctx, itemID, func(ctx context.Context) (*Result, error) {
		return s.run(ctx, itemID)
	})
}

func (s *Service) run(ctx context.Context, itemID string) (*Result, error) {
	runID := uuid.NewString()
	ctx, span := syncTracer.Start(ctx, "itemsync.SyncItem",
		trace.WithAttributes(
			attribute.String("plaid.item_id", itemID),
			attribute.String("sync.run_id", runID),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := s.sync(ctx, itemID, runID)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("Item %s: sync %s failed after %d pages: %v", itemID, runID, result.Pages, err)
	} else {
		span.SetStatus(codes.Ok, "")
		log.Printf("Item %s: sync %s done: %d accounts, %d transactions, %d removed, %d pages in %v",
			itemID, runID, result.AccountsSynced, result.TransactionsSynced, result.TransactionsRemoved, result.Pages, time.Since(start))
	}
	span.SetAttributes(
		attribute.Int("sync.pages", result.Pages),
		attribute.Int("sync.transactions", result.TransactionsSynced),
	)

	attrs := metric.WithAttributes(attribute.String("status", status))
	syncDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	syncRuns.Add(ctx, 1, attrs)

	return result, err
}

func (s *Service) sync(ctx context.Context, itemID, runID string) (*Result, error) {
	result := &Result{}

	conn, err := s.store.GetConnectionByItemID(ctx, itemID)
	if err != nil {
		return result, fmt.Errorf("load connection: %w", err)
	}
	log.Printf("Item %s: sync %s started for connection %d", itemID, runID, conn.ID)

	accounts, err := s.client.GetAccounts(ctx, conn.AccessToken)
	if err != nil {
		return result, fmt.Errorf("fetch accounts: %w", err)
	}
	result.AccountsSynced, err = s.store.UpsertAccounts(ctx, conn.ID, toAccountRecords(accounts))
	if err != nil {
		return result, fmt.Errorf("upsert accounts: %w", err)
	}

	cursor := conn.CursorValue()
	result.Cursor = cursor
	for {
		if result.Pages >= s.opts.MaxPages {
			return result, errs.Wrap(errs.ErrUpstream, "sync item",
				fmt.Errorf("still has more after %d pages", s.opts.MaxPages))
		}

		next, hasMore, err := s.syncPage(ctx, conn, cursor, result)
		if err != nil {
			return result, err
		}
		cursor = next
		if !hasMore {
			return result, nil
		}
	}
}

// syncPage fetches the page after cursor and commits it. result is updated
// only once the commit succeeds.
func (s *Service) syncPage(ctx context.Context, conn *connection.Connection, cursor string, result *Result) (string, bool, error) {
	ctx, span := syncTracer.Start(ctx, "itemsync.page",
		trace.WithAttributes(attribute.Int("sync.page", result.Pages+1)),
	)
	defer span.End()

	page, err := s.client.SyncPage(ctx, conn.AccessToken, cursor, plaid.SyncOptions{Count: s.opts.PageSize})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return "", false, fmt.Errorf("fetch page %d: %w", result.Pages+1, err)
	}

	committed, err := s.store.CommitPage(ctx, conn.ID, toPage(page), cursor, page.NextCursor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return "", false, fmt.Errorf("commit page %d: %w", result.Pages+1, err)
	}

	result.Pages++
	result.TransactionsSynced += committed.Upserted
	result.TransactionsRemoved += committed.Removed
	result.Cursor = page.NextCursor

	syncPages.Add(ctx, 1)
	syncTransactions.Add(ctx, int64(committed.Upserted), metric.WithAttributes(attribute.String("outcome", "upserted")))
	syncTransactions.Add(ctx, int64(committed.Removed), metric.WithAttributes(attribute.String("outcome", "removed")))
	if committed.Skipped > 0 {
		syncTransactions.Add(ctx, int64(committed.Skipped), metric.WithAttributes(attribute.String("outcome", "skipped")))
		log.Printf("Item %s: page %d skipped %d transactions for unknown accounts", conn.ItemID, result.Pages, committed.Skipped)
	}

	span.SetAttributes(
		attribute.Int("sync.upserted", committed.Upserted),
		attribute.Int("sync.removed", committed.Removed),
		attribute.Bool("sync.has_more", page.HasMore),
	)
	return page.NextCursor, page.HasMore, nil
}
