package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// ErrAgentExists is returned when the mobile number is already registered.
var ErrAgentExists = errors.New("an agent with this mobile number is already registered")

// Agent is a registered field agent.
type Agent struct {
	ID string
	domain.AgentRegistration
	CreatedAt time.Time
}

// AgentRepository stores agent registrations.
type AgentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) Create(ctx context.Context, a Agent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agents (id, agent_name, mobile_number, email, branch, division, sub_division, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AgentName, a.MobileNumber, a.Email, a.Branch, a.Division, a.SubDivision,
		formatTime(a.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAgentExists
		}
		return fmt.Errorf("inserting agent: %w", err)
	}
	return nil
}

// List returns agents ordered by name.
func (r *AgentRepository) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agent_name, mobile_number, email, branch, division, sub_division, created_at
		 FROM agents ORDER BY agent_name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		var (
			a         Agent
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.AgentName, &a.MobileNumber, &a.Email,
			&a.Branch, &a.Division, &a.SubDivision, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
