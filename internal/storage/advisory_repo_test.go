package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return db
}

func TestAdvisoryRepo_GetByFilename_NotFound(t *testing.T) {
	repo := NewAdvisoryRepo(newTestDB(t))

	_, err := repo.GetByFilename(context.Background(), "missing.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByFilename() error = %v, want ErrNotFound", err)
	}
}

func TestAdvisoryRepo_Upsert_Insert(t *testing.T) {
	repo := NewAdvisoryRepo(newTestDB(t))

	advisory := &AdvisoryRecord{
		Filename: "adv-001.md",
		Title:    "Security Advisory: Buffer Overflow in libfoo",
		Hash:     "abc123",
	}
	if err := repo.Upsert(context.Background(), advisory); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.GetByFilename(context.Background(), "adv-001.md")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	if got.Title != advisory.Title {
		t.Errorf("Title = %q, want %q", got.Title, advisory.Title)
	}
	if got.Hash != "abc123" {
		t.Errorf("Hash = %q, want abc123", got.Hash)
	}
	if got.IndexedAt.IsZero() {
		t.Error("IndexedAt should be set on insert")
	}
}

func TestAdvisoryRepo_Upsert_Update(t *testing.T) {
	repo := NewAdvisoryRepo(newTestDB(t))

	advisory := &AdvisoryRecord{
		Filename: "adv-001.md",
		Title:    "Security Advisory: Buffer Overflow in libfoo",
		Hash:     "abc123",
	}
	if err := repo.Upsert(context.Background(), advisory); err != nil {
		t.Fatalf("Upsert() insert error = %v", err)
	}

	advisory.Title = "Security Advisory: Heap Overflow in libfoo"
	advisory.Hash = "def456"
	if err := repo.Upsert(context.Background(), advisory); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}

	got, err := repo.GetByFilename(context.Background(), "adv-001.md")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	if got.Title != "Security Advisory: Heap Overflow in libfoo" {
		t.Errorf("Title = %q, want updated title", got.Title)
	}
	if got.Hash != "def456" {
		t.Errorf("Hash = %q, want def456", got.Hash)
	}

	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Upsert() on existing filename should not create a second row, got %d", len(all))
	}
}

func TestAdvisoryRepo_ListAll(t *testing.T) {
	repo := NewAdvisoryRepo(newTestDB(t))

	ctx := context.Background()
	for _, filename := range []string{"zeta.md", "alpha.md", "mid.md"} {
		advisory := &AdvisoryRecord{
			Filename: filename,
			Title:    "Security Advisory: " + filename,
			Hash:     "hash",
		}
		if err := repo.Upsert(ctx, advisory); err != nil {
			t.Fatalf("Upsert(%s) error = %v", filename, err)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}

	want := []string{"alpha.md", "mid.md", "zeta.md"}
	if len(all) != len(want) {
		t.Fatalf("ListAll() returned %d advisories, want %d", len(all), len(want))
	}
	for i, advisory := range all {
		if advisory.Filename != want[i] {
			t.Errorf("ListAll()[%d].Filename = %q, want %q", i, advisory.Filename, want[i])
		}
	}
}

func TestAdvisoryRepo_ListAll_Empty(t *testing.T) {
	repo := NewAdvisoryRepo(newTestDB(t))

	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListAll() on empty database = %d advisories, want 0", len(all))
	}
}
