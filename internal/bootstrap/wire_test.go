package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"evervoice/internal/domain"
)

func TestBuildSuccess(t *testing.T) {
	t.Setenv("EVERVOICE_DATA_DIR", t.TempDir())

	services, err := Build(noopEventSink{}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer services.Close()

	if services.Controller == nil {
		t.Fatalf("expected controller")
	}
	if services.Settings.Get().Language != "de" {
		t.Fatalf("expected default settings, got %+v", services.Settings.Get())
	}
	if services.Webhook == nil || services.Hotkeys == nil {
		t.Fatalf("expected webhook caller and hotkey registrar")
	}

	// recordings dir must exist after Build
	if _, err := os.Stat(services.Config.RecordingsDir()); err != nil {
		t.Fatalf("recordings dir not ready: %v", err)
	}
}

func TestBuildCleansUpStaleRecordings(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EVERVOICE_DATA_DIR", dir)
	t.Setenv("EVERVOICE_RECORDING_MAX_AGE_DAYS", "1")

	recordingsDir := filepath.Join(dir, "recordings")
	if err := os.MkdirAll(recordingsDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stale := filepath.Join(recordingsDir, "recording-old.wav")
	if err := os.WriteFile(stale, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	services, err := Build(noopEventSink{}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer services.Close()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale recording should be removed, stat err=%v", err)
	}
}

func TestBuildFailsOnUnwritableDataDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Setenv("EVERVOICE_DATA_DIR", filepath.Join(dir, "data"))

	if _, err := Build(noopEventSink{}, nil); err == nil {
		t.Fatalf("expected build error for unwritable data dir")
	}
}

type noopEventSink struct{}

func (noopEventSink) CaptureStateChanged(_ domain.CaptureState, _ domain.StateReason) {}
func (noopEventSink) DurationTick(_, _ int, _ bool)                                   {}
func (noopEventSink) TranscriptionUpdated(_ domain.TranscriptionOutcome)              {}
func (noopEventSink) SummaryUpdated(_ domain.SummaryOutcome)                          {}
func (noopEventSink) HistoryChanged()                                                 {}
func (noopEventSink) SessionError(_ domain.ErrorCode, _ string)                       {}
