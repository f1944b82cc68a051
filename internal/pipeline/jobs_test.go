package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/hlzconv/internal/convert"
	"github.com/dgallion1/hlzconv/internal/failure"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob("a.docx", []byte("x"))
	b := NewJob("a.docx", []byte("x"))
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, a.Status)
	}
	if a.ContentHash != b.ContentHash {
		t.Errorf("expected equal content hashes")
	}
	if string(a.FileData()) != "x" {
		t.Errorf("expected file data %q, got %q", "x", a.FileData())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusConverting, "converting"},
		{StatusArchiving, "archiving"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_Fail(t *testing.T) {
	job := &Job{ID: "fail", UpdatedAt: time.Now()}
	job.Fail(failure.New(failure.StyleCycle, "style %q loops", "A"), "converting")

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Failure == nil || snap.Failure.Kind != failure.StyleCycle {
		t.Fatalf("expected style_cycle failure, got %+v", snap.Failure)
	}
	if snap.Failure.Message != `style "A" loops` {
		t.Errorf("unexpected failure message %q", snap.Failure.Message)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("archive: timeout")
	job.AddError("archive: refused")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "archive: timeout" {
		t.Errorf("expected first error %q, got %q", "archive: timeout", snap.Progress.Errors[0])
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if snap.Failure != nil {
		t.Errorf("expected no failure, got %+v", snap.Failure)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func minimalDocx(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<w:document xmlns:w="w"><w:body>` +
		`<w:p><w:r><w:t>【발명의 설명】</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>본문</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type recordingArchiver struct {
	mu   sync.Mutex
	recs []ArchiveRecord
	err  error
}

func (a *recordingArchiver) Save(_ context.Context, rec ArchiveRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
	return a.err
}

func TestWorker_Process(t *testing.T) {
	arch := &recordingArchiver{}
	w := NewWorker(convert.Options{}, arch, slog.New(slog.DiscardHandler))
	job := NewJob("출원.docx", minimalDocx(t))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Paragraphs != 1 {
		t.Errorf("expected 1 paragraph, got %d", snap.Progress.Paragraphs)
	}
	if job.Result() == nil || len(job.Result().Bundle) == 0 {
		t.Fatal("expected a bundle")
	}
	if job.FileData() != nil {
		t.Error("expected input to be released after conversion")
	}
	if len(arch.recs) != 1 || arch.recs[0].JobID != job.ID {
		t.Errorf("expected one archive record for the job, got %+v", arch.recs)
	}
}

func TestWorker_ArchiveFailureKeepsResult(t *testing.T) {
	arch := &recordingArchiver{err: errors.New("db down")}
	w := NewWorker(convert.Options{}, arch, slog.New(slog.DiscardHandler))
	job := NewJob("a.docx", minimalDocx(t))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected archive error recorded, got %v", snap.Progress.Errors)
	}
}

func TestWorker_FatalFailure(t *testing.T) {
	w := NewWorker(convert.Options{}, nil, slog.New(slog.DiscardHandler))
	job := NewJob("a.docx", []byte("not a zip"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", snap.Status)
	}
	if snap.Failure == nil || snap.Failure.Kind != failure.InvalidInput {
		t.Errorf("expected invalid_input failure, got %+v", snap.Failure)
	}
	if job.Result() != nil {
		t.Error("expected no result")
	}
}

func TestOrchestrator_SubmitAndQueueFull(t *testing.T) {
	o := NewOrchestrator(Settings{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}, convert.Options{}, nil, slog.New(slog.DiscardHandler))
	// Not started: the queue holds exactly one job.
	first := NewJob("a.docx", minimalDocx(t))
	if err := o.Submit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := NewJob("b.docx", minimalDocx(t))
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Phase != "queue_full" {
		t.Errorf("expected queue_full phase, got %q", second.Snapshot().Phase)
	}

	o.Start(context.Background())
	deadline := time.Now().Add(5 * time.Second)
	for first.Snapshot().Status != StatusCompleted && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	o.Stop()
	if got := o.GetJob(first.ID); got == nil || got.Snapshot().Status != StatusCompleted {
		t.Errorf("expected first job completed")
	}
}
