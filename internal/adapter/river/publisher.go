// Package river turns confirmed application actions into River jobs stored
// in the same SQLite database as the rest of the service.
package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.EventPublisher = (*Publisher)(nil)

// ActionJobArgs is a snapshot of an application action. The worker never
// reads the backend, so everything it logs travels with the job.
type ActionJobArgs struct {
	Event         string    `json:"event"`
	ApplicationID string    `json:"application_id"`
	Status        string    `json:"status"`
	AgentName     string    `json:"agent_name"`
	Firm          string    `json:"firm,omitempty"`
	ActorID       string    `json:"actor_id"`
	ActorRole     string    `json:"actor_role"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (ActionJobArgs) Kind() string { return "application.action" }

// InsertOpts routes action jobs to their own queue.
func (ActionJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueActions, MaxAttempts: 5}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event, app domain.Application, actor domain.User) error {
	_, err := p.client.Insert(ctx, ActionJobArgs{
		Event:         string(event),
		ApplicationID: app.ID,
		Status:        string(app.Status),
		AgentName:     app.AgentName,
		Firm:          app.Fields.Get(domain.FieldFirm),
		ActorID:       actor.ID,
		ActorRole:     string(actor.Role),
		OccurredAt:    time.Now().UTC(),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing action job: %w", err)
	}
	return nil
}
