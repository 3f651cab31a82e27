package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestLoadMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_likes.sql", "0001_init.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	resolved, migrations, err := loadMigrations(dir)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if resolved != dir {
		t.Fatalf("expected absolute dir to be kept, got %q", resolved)
	}
	want := []string{"0001_init.sql", "0002_likes.sql"}
	if !reflect.DeepEqual(migrations, want) {
		t.Fatalf("unexpected migrations %v", migrations)
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	if _, _, err := loadMigrations(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"wrapped deadlock", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"tx closed", pgx.ErrTxClosed, true},
		{"other", os.ErrPermission, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRetryMigration(tc.err); got != tc.want {
				t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
