package otel_test

import (
	"path/filepath"
	"testing"

	adapter "github.com/neomorfeo/merchantdesk/internal/adapter/otel"
	"github.com/neomorfeo/merchantdesk/internal/adapter/sqlite"
)

func TestOpenDB_Migrates(t *testing.T) {
	db, err := adapter.OpenDB(filepath.Join(t.TempDir(), "otel.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := sqlite.Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT count(*) FROM applications").Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
