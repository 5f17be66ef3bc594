package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &Record{
		ID:           "abc-123",
		Mode:         ModeGenerate,
		Topic:        "pythagorean theorem",
		Success:      true,
		Attempts:     2,
		Source:       "from manim import *",
		SceneName:    "ProofScene",
		ArtifactPath: "/tmp/abc-123.mp4",
		DurationMS:   45000,
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Save must stamp CreatedAt")
	}

	got, err := s.Get(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Topic != rec.Topic || got.Attempts != 2 || !got.Success {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.SceneName != "ProofScene" || got.ArtifactPath != "/tmp/abc-123.mp4" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, &Record{Mode: ModeGenerate}); err == nil {
		t.Error("expected error for empty id")
	}
	if err := s.Save(ctx, &Record{ID: "x", Mode: "bogus"}); err == nil {
		t.Error("expected error for invalid mode")
	}
}

func TestListNewestFirstWithFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*Record{
		{ID: "r1", Mode: ModeGenerate, Topic: "derivatives", Success: true, CreatedAt: base},
		{ID: "r2", Mode: ModeAnswer, Question: "Solve 3x + 5 = 14", Success: true, CreatedAt: base.Add(time.Minute)},
		{ID: "r3", Mode: ModeGenerate, Topic: "integrals", Success: false, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	all, err := s.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "r3" || all[2].ID != "r1" {
		t.Errorf("expected newest first, got %v", ids(all))
	}

	generated, err := s.List(ctx, ListFilter{Mode: ModeGenerate})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(generated) != 2 {
		t.Errorf("expected 2 generate records, got %v", ids(generated))
	}

	succeeded := true
	ok, err := s.List(ctx, ListFilter{Success: &succeeded, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ok) != 1 || ok[0].ID != "r2" {
		t.Errorf("expected [r2], got %v", ids(ok))
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, &Record{ID: "gone", Mode: ModeAnswer}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Error("record should be gone")
	}
	if err := s.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, &Record{ID: "dup", Mode: ModeGenerate}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, &Record{ID: "dup", Mode: ModeGenerate}); err == nil {
		t.Error("expected primary key violation")
	}
}

func ids(records []*Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}
