package ports

import (
	"context"
	"io"

	"evervoice/internal/domain"
)

// DeviceConfig describes how the microphone should be captured.
type DeviceConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// DeviceHandle is a live capture device. Reads deliver audio chunks until
// the handle is released.
type DeviceHandle interface {
	io.ReadCloser
	Release() error
	MimeType() string
}

// DeviceCapture acquires microphone handles. Acquisition failures are
// reported as *domain.CaptureError so callers can surface the typed kind.
type DeviceCapture interface {
	Acquire(ctx context.Context, cfg DeviceConfig) (DeviceHandle, error)
}

// RecordingStore persists captured audio payloads.
type RecordingStore interface {
	EnsureReady() (string, error)
	Save(data []byte, mimeType string) (string, error)
	Delete(locator string) error
}

// Transcriber converts a saved recording into text. Failures are returned
// inside the result, never as an error, so the orchestrator sees one shape.
type Transcriber interface {
	Transcribe(ctx context.Context, locator string) domain.TranscriptionResult
}

// SummaryError is a structured summarization failure.
type SummaryError struct {
	Kind    domain.SummaryErrorKind
	Message string
}

func (e *SummaryError) Error() string { return e.Message }

// Summarizer produces a markdown summary from transcribed text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// HistoryStore records completed sessions.
type HistoryStore interface {
	Create(locator string, durationSeconds float64, transcription string) (domain.HistoryEntry, error)
	AttachSummary(id string, markdown string) error
	List() ([]domain.HistoryEntry, error)
	Delete(id string) error
}

// EventSink emits backend state and progress to observers.
type EventSink interface {
	CaptureStateChanged(state domain.CaptureState, reason domain.StateReason)
	DurationTick(elapsedSeconds, remainingSeconds int, warning bool)
	TranscriptionUpdated(outcome domain.TranscriptionOutcome)
	SummaryUpdated(outcome domain.SummaryOutcome)
	HistoryChanged()
	SessionError(code domain.ErrorCode, detail string)
}

// HotkeyRegistrar binds a system-wide key combination to a trigger callback.
type HotkeyRegistrar interface {
	Register(combo string, onTrigger func()) error
	Unregister()
}
