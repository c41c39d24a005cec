package usecase

import (
	"testing"

	"evervoice/internal/domain"
)

func TestStateStoreTranscriptionPhaseMovesForwardOnly(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()

	if !store.beginTranscription(gen) {
		t.Fatalf("begin from idle should succeed")
	}
	if store.beginTranscription(gen) {
		t.Fatalf("begin while running must be refused")
	}
	if !store.completeTranscription(gen, "hello") {
		t.Fatalf("complete from running should succeed")
	}
	if store.completeTranscription(gen, "again") {
		t.Fatalf("complete from success must be refused")
	}
	if store.failTranscription(gen, domain.TranscriptionErrNetwork, "late", true) {
		t.Fatalf("fail from success must be refused")
	}

	// A terminal phase from a finished run may be overwritten by a new
	// begin; a retry path resets via ClearForRetry first anyway.
	if !store.beginTranscription(gen) {
		t.Fatalf("begin over terminal phase should succeed")
	}
}

func TestStateStoreStaleGenerationRefused(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()

	if !store.beginTranscription(gen) {
		t.Fatalf("begin failed")
	}
	store.ClearForNewSession()

	if store.completeTranscription(gen, "late result") {
		t.Fatalf("stale complete must be refused")
	}
	if store.adoptSelection(gen, "entry-1") {
		t.Fatalf("stale selection must be refused")
	}

	snap := store.Snapshot()
	if snap.Transcription.Phase != domain.PhaseIdle {
		t.Fatalf("superseded in-flight run should reset to idle, got %s", snap.Transcription.Phase)
	}
}

func TestStateStoreSummaryRequiresTranscriptionSuccess(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()

	if store.beginSummary(gen) {
		t.Fatalf("summary must not start before transcription succeeds")
	}

	store.beginTranscription(gen)
	if store.beginSummary(gen) {
		t.Fatalf("summary must not start while transcription is running")
	}

	store.completeTranscription(gen, "text")
	if !store.beginSummary(gen) {
		t.Fatalf("summary should start after transcription success")
	}
	if store.beginSummary(gen) {
		t.Fatalf("second begin while running must be refused")
	}
	if !store.completeSummary(gen, "## md", "text") {
		t.Fatalf("complete summary failed")
	}

	snap := store.Snapshot()
	if snap.Summary.SourceText != "text" {
		t.Fatalf("summary must record its source text, got %q", snap.Summary.SourceText)
	}
}

func TestStateStoreClearForNewSessionKeepsTranscriptionDisplay(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()
	store.beginTranscription(gen)
	store.completeTranscription(gen, "kept on display")
	store.beginSummary(gen)
	store.completeSummary(gen, "## md", "kept on display")
	store.adoptSelection(gen, "entry-1")
	store.SetRecording(&domain.PersistedAudio{Locator: "rec.wav", DurationSeconds: 4})

	store.ClearForNewSession()
	snap := store.Snapshot()

	if snap.Transcription.Phase != domain.PhaseSuccess || snap.Transcription.Text != "kept on display" {
		t.Fatalf("completed transcription must survive a new session: %+v", snap.Transcription)
	}
	if snap.Summary.Phase != domain.PhaseIdle {
		t.Fatalf("summary must reset, got %s", snap.Summary.Phase)
	}
	if snap.Selection.HistoryID != "" {
		t.Fatalf("selection must reset, got %q", snap.Selection.HistoryID)
	}
	if snap.Recording != nil {
		t.Fatalf("recording must reset")
	}
	if store.Generation() == gen {
		t.Fatalf("generation must advance")
	}
}

func TestStateStoreClearForRetryKeepsRecording(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()
	store.SetRecording(&domain.PersistedAudio{Locator: "rec.wav", DurationSeconds: 7.5})
	store.beginTranscription(gen)
	store.failTranscription(gen, domain.TranscriptionErrNetwork, "offline", true)

	store.ClearForRetry()
	snap := store.Snapshot()

	if snap.Transcription.Phase != domain.PhaseIdle || snap.Summary.Phase != domain.PhaseIdle {
		t.Fatalf("outcomes must reset for retry")
	}
	if snap.Recording == nil || snap.Recording.Locator != "rec.wav" {
		t.Fatalf("persisted audio must survive a retry reset")
	}
	if snap.Recording.DurationSeconds != 7.5 {
		t.Fatalf("duration must survive a retry reset")
	}
	if store.Generation() != gen {
		t.Fatalf("retry must not supersede the session")
	}
}

func TestStateStoreSelectEntryClearsSummaryBothWays(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()
	store.beginTranscription(gen)
	store.completeTranscription(gen, "text")
	store.beginSummary(gen)
	store.completeSummary(gen, "## md", "text")

	store.SelectEntry("entry-2")
	if snap := store.Snapshot(); snap.Summary.Phase != domain.PhaseIdle {
		t.Fatalf("selecting an entry must clear the live summary")
	}

	store.beginSummary(gen)
	store.completeSummary(gen, "## md2", "text")
	store.SelectEntry("")
	if snap := store.Snapshot(); snap.Summary.Phase != domain.PhaseIdle {
		t.Fatalf("deselecting must clear the live summary")
	}
}

func TestStateStoreAdoptSelectionKeepsSummary(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()
	store.beginTranscription(gen)
	store.completeTranscription(gen, "text")
	store.beginSummary(gen)

	if !store.adoptSelection(gen, "entry-1") {
		t.Fatalf("adopt failed")
	}
	snap := store.Snapshot()
	if snap.Summary.Phase != domain.PhaseRunning {
		t.Fatalf("pipeline selection must not disturb the running summary")
	}
	if snap.Selection.HistoryID != "entry-1" {
		t.Fatalf("selection not adopted")
	}
}

func TestStateStoreFullReset(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()
	store.beginTranscription(gen)
	store.completeTranscription(gen, "text")
	store.SetRecording(&domain.PersistedAudio{Locator: "rec.wav"})
	store.SetCaptureState(domain.CaptureStateStopped)

	store.FullReset()
	snap := store.Snapshot()

	if snap.Capture.State != domain.CaptureStateIdle {
		t.Fatalf("capture not reset")
	}
	if snap.Transcription.Phase != domain.PhaseIdle || snap.Summary.Phase != domain.PhaseIdle {
		t.Fatalf("outcomes not reset")
	}
	if snap.Recording != nil {
		t.Fatalf("recording not reset")
	}
	if store.Current(gen) {
		t.Fatalf("full reset must supersede the session")
	}
}

func TestStateStoreSnapshotCopiesRecording(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	store.SetRecording(&domain.PersistedAudio{Locator: "rec.wav"})

	snap := store.Snapshot()
	snap.Recording.Locator = "mutated"

	if store.Snapshot().Recording.Locator != "rec.wav" {
		t.Fatalf("snapshot must not alias internal state")
	}
}

func TestStateStoreClearSummaryOnly(t *testing.T) {
	t.Parallel()

	store := NewStateStore()
	gen := store.Generation()
	if !store.beginTranscription(gen) || !store.completeTranscription(gen, "hello") {
		t.Fatalf("transcription setup failed")
	}
	if !store.beginSummary(gen) || !store.completeSummary(gen, "## notes", "hello") {
		t.Fatalf("summary setup failed")
	}

	store.ClearSummaryOnly()
	snap := store.Snapshot()

	if snap.Summary.Phase != domain.PhaseIdle || snap.Summary.Markdown != "" {
		t.Fatalf("summary not cleared: %+v", snap.Summary)
	}
	if snap.Transcription.Phase != domain.PhaseSuccess || snap.Transcription.Text != "hello" {
		t.Fatalf("transcription must survive a summary-only clear: %+v", snap.Transcription)
	}
}
