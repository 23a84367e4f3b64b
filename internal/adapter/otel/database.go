package otel

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/neomorfeo/merchantdesk/internal/adapter/sqlite"
)

// OpenDB opens the merchantdesk SQLite file with a span per statement and
// connection pool metrics. Row iteration and session resets are not traced.
func OpenDB(path string) (*sql.DB, error) {
	attrs := otelsql.WithAttributes(
		semconv.DBSystemSqlite,
		attribute.String("db.namespace", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))),
	)

	db, err := otelsql.Open(sqlite.DriverName, path, attrs,
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}

	// River and the repositories share this handle.
	db.SetMaxOpenConns(1)
	if err := sqlite.Configure(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, attrs); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}
	return db, nil
}
