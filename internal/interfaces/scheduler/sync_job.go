package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"finsync/internal/domain/itemsync"
)

// ItemSyncer runs a full sync of one linked item.
type ItemSyncer interface {
	SyncItem(ctx context.Context, itemID string) (*itemsync.Result, error)
}

// ItemLister returns the ids of every linked item.
type ItemLister interface {
	ListItemIDs(ctx context.Context) ([]string, error)
}

// ItemSyncJob syncs one item.
type ItemSyncJob struct {
	itemID string
	syncer ItemSyncer
}

func NewItemSyncJob(itemID string, syncer ItemSyncer) *ItemSyncJob {
	return &ItemSyncJob{itemID: itemID, syncer: syncer}
}

// Execute runs the sync. An item already being synced elsewhere is skipped,
// not treated as a failure.
func (j *ItemSyncJob) Execute(ctx context.Context) error {
	result, err := j.syncer.SyncItem(ctx, j.itemID)
	if errors.Is(err, itemsync.ErrSyncInProgress) {
		log.Printf("Item %s: sync already running elsewhere, skipping", j.itemID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync item %s: %w", j.itemID, err)
	}

	log.Printf("Item %s: scheduled sync stored %d transactions, removed %d over %d pages",
		j.itemID, result.TransactionsSynced, result.TransactionsRemoved, result.Pages)
	return nil
}

func (j *ItemSyncJob) Key() string {
	return j.itemID
}

func (j *ItemSyncJob) Description() string {
	return "Transaction sync for item " + j.itemID
}

// ItemSyncJobs builds a JobProvider that emits one ItemSyncJob per linked item.
func ItemSyncJobs(items ItemLister, syncer ItemSyncer) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		ids, err := items.ListItemIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}

		jobs := make([]Job, 0, len(ids))
		for _, id := range ids {
			jobs = append(jobs, NewItemSyncJob(id, syncer))
		}
		return jobs, nil
	}
}
