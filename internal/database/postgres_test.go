package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationFiles_OrderedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010_later.sql", "001_initial.sql", "README.md", "abc.sql", "002_next.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{1, 2, 10}
	if len(files) != len(want) {
		t.Fatalf("expected %d migrations, got %+v", len(want), files)
	}
	for i, v := range want {
		if files[i].version != v {
			t.Errorf("position %d: expected version %d, got %d", i, v, files[i].version)
		}
	}
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	if _, err := migrationFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestMigrationFiles_RepositorySchema(t *testing.T) {
	files, err := migrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 || files[0].name != "001_deepseek_pages.sql" {
		t.Fatalf("expected 001_deepseek_pages.sql first, got %+v", files)
	}
}
