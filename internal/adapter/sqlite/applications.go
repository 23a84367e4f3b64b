package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.ApplicationRepository = (*ApplicationRepository)(nil)

// ApplicationRepository implements domain.ApplicationRepository.
// Field values, documents and discrepancy items are stored as JSON columns.
type ApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository wraps a migrated database.
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

type documentRow struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type discrepancyRow struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Resolved bool   `json:"resolved"`
}

const applicationColumns = `id, status, agent_name, fields, documents, discrepancy_items,
	rejection_reason, rejection_comment, created_at, updated_at`

func (r *ApplicationRepository) Create(ctx context.Context, a domain.Application) error {
	fields, docs, items, err := encodeApplication(a)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Status), a.AgentName, fields, docs, items,
		a.RejectionReason, a.RejectionComment,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("application %q already exists: %w", a.ID, err)
		}
		return fmt.Errorf("inserting application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (domain.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)

	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Application{}, domain.ErrApplicationNotFound
	}
	return a, err
}

// List returns applications newest first. Query matches the id, agent name,
// firm or application name, case-insensitively.
func (r *ApplicationRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Application, error) {
	var (
		where []string
		args  []any
	)

	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, `(lower(id) LIKE ? OR lower(agent_name) LIKE ?
			OR lower(json_extract(fields, '$.firm')) LIKE ?
			OR lower(json_extract(fields, '$.appl_name')) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if !f.DateFrom.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, formatTime(f.DateTo))
	}
	if f.Agent != "" {
		where = append(where, "lower(agent_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(f.Agent))+"%")
	}
	if f.City != "" {
		where = append(where, "lower(trim(json_extract(fields, '$.city'))) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(f.City)))
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	} else if f.Offset > 0 {
		query += ` LIMIT -1`
	}
	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ApplicationRepository) Update(ctx context.Context, a domain.Application) error {
	fields, docs, items, err := encodeApplication(a)
	if err != nil {
		return err
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, agent_name = ?, fields = ?, documents = ?,
		 discrepancy_items = ?, rejection_reason = ?, rejection_comment = ?, updated_at = ?
		 WHERE id = ?`,
		string(a.Status), a.AgentName, fields, docs, items,
		a.RejectionReason, a.RejectionComment,
		formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating application: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

// Count returns the number of stored applications.
func (r *ApplicationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM applications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting applications: %w", err)
	}
	return n, nil
}

func encodeApplication(a domain.Application) (fields, docs, items string, err error) {
	f := a.Fields
	if f == nil {
		f = domain.Draft{}
	}
	fb, err := json.Marshal(f)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding fields: %w", err)
	}

	docRows := make([]documentRow, len(a.Documents))
	for i, d := range a.Documents {
		docRows[i] = documentRow{Type: string(d.Type), Name: d.Name, Size: d.Size, URL: d.URL}
	}
	db, err := json.Marshal(docRows)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding documents: %w", err)
	}

	itemRows := make([]discrepancyRow, len(a.DiscrepancyItems))
	for i, it := range a.DiscrepancyItems {
		itemRows[i] = discrepancyRow{Code: it.Code, Message: it.Message, Resolved: it.Resolved}
	}
	ib, err := json.Marshal(itemRows)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding discrepancy items: %w", err)
	}

	return string(fb), string(db), string(ib), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (domain.Application, error) {
	var (
		a                          domain.Application
		status, fields, docs       string
		items, createdAt, updateAt string
	)

	err := s.Scan(&a.ID, &status, &a.AgentName, &fields, &docs, &items,
		&a.RejectionReason, &a.RejectionComment, &createdAt, &updateAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Application{}, err
		}
		return domain.Application{}, fmt.Errorf("scanning application: %w", err)
	}

	a.Status = domain.Status(status)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updateAt)

	if err := json.Unmarshal([]byte(fields), &a.Fields); err != nil {
		return domain.Application{}, fmt.Errorf("decoding fields of %s: %w", a.ID, err)
	}

	var docRows []documentRow
	if err := json.Unmarshal([]byte(docs), &docRows); err != nil {
		return domain.Application{}, fmt.Errorf("decoding documents of %s: %w", a.ID, err)
	}
	for _, d := range docRows {
		a.Documents = append(a.Documents, domain.Document{Type: domain.DocumentType(d.Type), Name: d.Name, Size: d.Size, URL: d.URL})
	}

	var itemRows []discrepancyRow
	if err := json.Unmarshal([]byte(items), &itemRows); err != nil {
		return domain.Application{}, fmt.Errorf("decoding discrepancy items of %s: %w", a.ID, err)
	}
	for _, it := range itemRows {
		a.DiscrepancyItems = append(a.DiscrepancyItems, domain.DiscrepancyItem{Code: it.Code, Message: it.Message, Resolved: it.Resolved})
	}

	return a, nil
}
