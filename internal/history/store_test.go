package history

import (
	"context"
	"path/filepath"
	"testing"

	"glitchcut/internal/splitplan"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func samplePlan() *splitplan.Plan {
	return &splitplan.Plan{
		Points: []splitplan.Point{
			{Time: 12.5, DelayMS: 250, Source: "12.500"},
			{Time: 400.2, DelayMS: -80, Source: "390.000-420.000", Resolved: true},
		},
		Delays: []int{0, 250, -80},
	}
}

func TestRecordStartAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.RecordStart(ctx, "run-1", "movie.mkv", "repaired.mkv", 2, samplePlan()); err != nil {
		t.Fatalf("RecordStart returned error: %v", err)
	}

	runs, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || run.Input != "movie.mkv" || run.Output != "repaired.mkv" || run.Stream != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Status != StatusRunning {
		t.Fatalf("status = %s, want %s", run.Status, StatusRunning)
	}
	if run.SplitCount != 2 || len(run.Plan) != 2 {
		t.Fatalf("plan not persisted: count=%d plan=%+v", run.SplitCount, run.Plan)
	}
	if !run.Plan[1].Resolved || run.Plan[1].Source != "390.000-420.000" {
		t.Fatalf("resolved point lost detail: %+v", run.Plan[1])
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("created timestamp not set")
	}
}

func TestMarkCompleted(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.RecordStart(ctx, "run-1", "a.mkv", "b.mkv", 0, nil); err != nil {
		t.Fatalf("RecordStart returned error: %v", err)
	}
	if err := store.MarkCompleted(ctx, "run-1"); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	runs, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if runs[0].Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", runs[0].Status, StatusCompleted)
	}
	if runs[0].FinishedAt.IsZero() {
		t.Fatal("finished timestamp not set")
	}
}

func TestMarkFailedStoresMessage(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.RecordStart(ctx, "run-1", "a.mkv", "b.mkv", 0, nil); err != nil {
		t.Fatalf("RecordStart returned error: %v", err)
	}
	if err := store.MarkFailed(ctx, "run-1", context.DeadlineExceeded); err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}

	runs, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if runs[0].Status != StatusFailed {
		t.Fatalf("status = %s, want %s", runs[0].Status, StatusFailed)
	}
	if runs[0].Error == "" {
		t.Fatal("failure message not stored")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	if err := store.MarkCompleted(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if err := store.RecordStart(ctx, id, "a.mkv", "b.mkv", 0, nil); err != nil {
			t.Fatalf("RecordStart(%s) returned error: %v", id, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].CreatedAt.Before(runs[1].CreatedAt) {
		t.Fatalf("runs not newest-first: %v then %v", runs[0].CreatedAt, runs[1].CreatedAt)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.RecordStart(context.Background(), "run-1", "a.mkv", "b.mkv", 0, nil); err != nil {
		t.Fatalf("RecordStart returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	if got := reopened.Path(); got != filepath.Join(dir, "history.db") {
		t.Fatalf("Path = %s", got)
	}
	runs, err := reopened.List(context.Background(), 5)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run after reopen, got %d", len(runs))
	}
}
