package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := store.Record(ctx, Run{
			CaseID:      "case-1",
			StartedAt:   base.Add(time.Duration(i) * time.Hour),
			DurationMS:  1500,
			Windows:     12,
			FactsRouted: 40 + i,
			Primary:     "190",
			AlignmentOK: true,
			Status:      "ok",
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := store.Record(ctx, Run{CaseID: "case-2", StartedAt: base, Status: "no_evidence"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	runs, err := store.History(ctx, "case-1", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	// newest first
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("history not ordered newest first: %v, %v", runs[0].StartedAt, runs[1].StartedAt)
	}
	if runs[0].FactsRouted != 42 {
		t.Errorf("facts routed = %d, want 42", runs[0].FactsRouted)
	}
	if runs[0].Primary != "190" || !runs[0].AlignmentOK {
		t.Errorf("run fields not round-tripped: %+v", runs[0])
	}
}

func TestHistoryLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := store.Record(ctx, Run{
			CaseID:    "case-1",
			StartedAt: time.Now().Add(time.Duration(i) * time.Minute),
			Status:    "ok",
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	runs, err := store.History(ctx, "case-1", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want the limit of 2", len(runs))
	}
}

func TestHistoryEmptyCase(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.History(context.Background(), "missing", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs for an unknown case, want 0", len(runs))
	}
}
