package scheduler

import "context"

// Job is a unit of work executed by the worker pool.
type Job interface {
	// Execute runs the job. Implementations must honour ctx cancellation.
	Execute(ctx context.Context) error

	// Key identifies what the job works on (an item id for sync jobs).
	Key() string

	Description() string
}
