package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"
)

// QueueActions is the queue that carries application action jobs.
const QueueActions = "actions"

const (
	actionWorkers    = 2
	actionJobTimeout = 30 * time.Second
)

// Setup brings River's tables up to date on db and returns a client that
// works the actions queue. Starting and stopping it is left to the caller.
func Setup(ctx context.Context, db *sql.DB, logger *zap.Logger) (*Client, error) {
	driver := riversqlite.New(db)
	if err := migrate(ctx, driver); err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, &ActionWorker{logger: logger.Named("actions")}); err != nil {
		return nil, fmt.Errorf("registering action worker: %w", err)
	}

	client, err := river.NewClient(driver, &river.Config{
		Queues:     map[string]river.QueueConfig{QueueActions: {MaxWorkers: actionWorkers}},
		JobTimeout: actionJobTimeout,
		Workers:    workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}
	return client, nil
}

// migrate applies River's schema, which lives beside the goose-managed tables.
func migrate(ctx context.Context, driver *riversqlite.Driver) error {
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("running river migrations: %w", err)
	}
	return nil
}
