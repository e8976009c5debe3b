package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"expensetracker/internal/core"
)

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, core.Expense{
		Date:        core.NewDate(2025, 1, 1),
		Description: "t",
		Amount:      core.Money{Cents: 123},
		Category:    core.Food,
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	l, err := s.Load(ctx)
	if err != nil || l.Len() != 1 || l.Entries[0].Amount.Cents != 123 {
		t.Fatalf("unexpected load: %+v err=%v", l, err)
	}

	// Mutating the snapshot must not leak into the store.
	l.Entries[0].Description = "changed"
	again, _ := s.Load(ctx)
	if again.Entries[0].Description != "t" {
		t.Fatalf("snapshot aliases store state")
	}

	if _, err := s.Append(ctx, core.Expense{Category: core.Food}); err == nil {
		t.Fatalf("expected validation error for missing date")
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No file -> empty
	s := NewFromFiles(dir)
	if l, _ := s.Load(context.Background()); !l.IsEmpty() {
		t.Fatalf("expected empty store when seed file missing")
	}

	content := "Date,Amount,Description,Category\n2024-01-05,10.00,a,food\n2024-02-05,20.00,b, travel\n"
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	l, _ := s.Load(context.Background())
	if l.Len() != 2 || l.Entries[1].Category != core.Travel {
		t.Fatalf("unexpected seed: %+v", l.Entries)
	}
	ref, _ := s.Append(context.Background(), core.Expense{Date: core.NewDate(2024, 3, 1), Category: core.Other})
	if ref != "mem:3" {
		t.Fatalf("ref should continue after seed rows, got %q", ref)
	}
}
