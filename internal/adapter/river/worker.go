package river

import (
	"context"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// ActionWorker writes each application action to the activity log.
type ActionWorker struct {
	river.WorkerDefaults[ActionJobArgs]
	logger *zap.Logger
}

func (w *ActionWorker) Work(ctx context.Context, job *river.Job[ActionJobArgs]) error {
	w.logger.Info("application action",
		zap.String("event", job.Args.Event),
		zap.String("application_id", job.Args.ApplicationID),
		zap.String("status", job.Args.Status),
		zap.String("agent", job.Args.AgentName),
		zap.String("actor", job.Args.ActorID),
		zap.String("actor_role", job.Args.ActorRole),
		zap.Time("occurred_at", job.Args.OccurredAt),
		zap.Int64("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
	)
	return nil
}
