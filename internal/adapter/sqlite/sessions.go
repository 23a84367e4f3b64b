package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.SessionStore = (*SessionStore)(nil)

// SessionStore keeps login sessions in the sessions table. Rows older than
// the TTL are treated as missing and removed on the next Load.
type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionStore creates a session store whose entries expire after ttl.
func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl, now: time.Now}
}

type userRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, user domain.User) error {
	b, err := json.Marshal(userRow{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)})
	if err != nil {
		return fmt.Errorf("encoding session user: %w", err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_json, expires_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET user_json = excluded.user_json,
		 expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		sessionID, string(b), formatTime(now.Add(s.ttl)), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (domain.User, error) {
	var raw, expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_json, expires_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&raw, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("loading session: %w", err)
	}

	if !s.now().Before(parseTime(expiresAt)) {
		if err := s.Delete(ctx, sessionID); err != nil {
			return domain.User{}, err
		}
		return domain.User{}, domain.ErrSessionNotFound
	}

	var row userRow
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return domain.User{}, fmt.Errorf("decoding session user: %w", err)
	}
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: row.ID, Name: row.Name, Email: row.Email, Role: role}, nil
}

// Delete removes a session. Missing sessions are not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Purge deletes every expired session and returns how many were removed.
func (s *SessionStore) Purge(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, formatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return result.RowsAffected()
}
