package database

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"002_orders.sql", "001_local_storage.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("migrationFiles() error = %v", err)
	}

	want := []string{"001_local_storage.sql", "002_orders.sql"}
	if len(files) != len(want) {
		t.Fatalf("migrationFiles() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestMigrationFilesMissingDirectory(t *testing.T) {
	_, err := migrationFiles(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("migrationFiles() error = %v, want fs.ErrNotExist", err)
	}
}

func TestRepositoryMigrationsPresent(t *testing.T) {
	files, err := migrationFiles("../../migrations")
	if err != nil {
		t.Fatalf("migrationFiles() error = %v", err)
	}
	if len(files) == 0 || files[0] != "001_local_storage.sql" {
		t.Fatalf("migrationFiles() = %v, want 001_local_storage.sql first", files)
	}
}
