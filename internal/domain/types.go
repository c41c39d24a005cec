package domain

import "time"

// CaptureState models the recording lifecycle of a single voice session.
type CaptureState string

const (
	CaptureStateIdle      CaptureState = "idle"
	CaptureStateCapturing CaptureState = "capturing"
	CaptureStatePaused    CaptureState = "paused"
	CaptureStateStopped   CaptureState = "stopped"
)

// StateReason provides a structured reason for capture state transitions.
type StateReason string

const (
	ReasonStartupComplete     StateReason = "startup_complete"
	ReasonRecordingStarted    StateReason = "recording_started"
	ReasonRecordingResumed    StateReason = "recording_resumed"
	ReasonRecordingPaused     StateReason = "recording_paused"
	ReasonRecordingStopped    StateReason = "recording_stopped"
	ReasonRecordingDiscarded  StateReason = "recording_discarded"
	ReasonMaxDurationReached  StateReason = "max_duration_reached"
	ReasonNoAudioCaptured     StateReason = "no_audio_captured"
	ReasonTranscribing        StateReason = "transcribing"
	ReasonTranscriptionDone   StateReason = "transcription_done"
	ReasonTranscriptionFailed StateReason = "transcription_failed"
	ReasonSummarizing         StateReason = "summarizing"
	ReasonSummaryDone         StateReason = "summary_done"
	ReasonSummaryFailed       StateReason = "summary_failed"
	ReasonReadyForNextSession StateReason = "ready_for_next_session"
)

// ErrorCode identifies non-fatal and fatal backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeCapture       ErrorCode = "capture"
	ErrorCodeStorage       ErrorCode = "storage"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeSummarization ErrorCode = "summarization"
	ErrorCodeHistory       ErrorCode = "history"
	ErrorCodeHotkey        ErrorCode = "hotkey"
	ErrorCodeWebhook       ErrorCode = "webhook"
)

// CaptureErrorKind classifies device acquisition and recorder failures.
type CaptureErrorKind string

const (
	CaptureErrPermissionDenied CaptureErrorKind = "permission_denied"
	CaptureErrDeviceNotFound   CaptureErrorKind = "device_not_found"
	CaptureErrNotSupported     CaptureErrorKind = "not_supported"
	CaptureErrRecorder         CaptureErrorKind = "recorder_error"
	CaptureErrUnknown          CaptureErrorKind = "unknown"
)

// CaptureError is a typed device/recorder failure.
type CaptureError struct {
	Kind   CaptureErrorKind
	Detail string
}

func (e *CaptureError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

// TranscriptionErrorKind classifies transcription failures.
type TranscriptionErrorKind string

const (
	TranscriptionErrAPIKeyNotConfigured TranscriptionErrorKind = "api_key_not_configured"
	TranscriptionErrInvalidAPIKey       TranscriptionErrorKind = "invalid_api_key"
	TranscriptionErrFileNotFound        TranscriptionErrorKind = "file_not_found"
	TranscriptionErrFileRead            TranscriptionErrorKind = "file_read_error"
	TranscriptionErrInvalidAudioFormat  TranscriptionErrorKind = "invalid_audio_format"
	TranscriptionErrNetwork             TranscriptionErrorKind = "network_error"
	TranscriptionErrRateLimit           TranscriptionErrorKind = "rate_limit_exceeded"
	TranscriptionErrAPI                 TranscriptionErrorKind = "api_error"
	TranscriptionErrUnknown             TranscriptionErrorKind = "unknown"
)

// Retryable reports whether the kind is transient. Only network errors and
// rate limiting qualify; everything else requires user intervention.
func (k TranscriptionErrorKind) Retryable() bool {
	return k == TranscriptionErrNetwork || k == TranscriptionErrRateLimit
}

// SummaryErrorKind classifies summarization failures. Summarization carries
// no retryable flag; a failed summary is retried only by re-running the
// whole pipeline.
type SummaryErrorKind string

const (
	SummaryErrAPIKeyNotConfigured SummaryErrorKind = "api_key_not_configured"
	SummaryErrInvalidAPIKey       SummaryErrorKind = "invalid_api_key"
	SummaryErrNetwork             SummaryErrorKind = "network_error"
	SummaryErrRateLimit           SummaryErrorKind = "rate_limit_exceeded"
	SummaryErrAPI                 SummaryErrorKind = "api_error"
	SummaryErrEmptyText           SummaryErrorKind = "empty_text"
)

// Phase is the lifecycle of an asynchronous pipeline step.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// TranscriptionResult is the collaborator response shape for one
// transcription attempt.
type TranscriptionResult struct {
	Success      bool                   `json:"success"`
	Text         string                 `json:"text,omitempty"`
	ErrorKind    TranscriptionErrorKind `json:"errorKind,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Retryable    bool                   `json:"retryable,omitempty"`
}

// TranscriptionOutcome is the per-session transcription state.
type TranscriptionOutcome struct {
	Phase        Phase                  `json:"phase"`
	Text         string                 `json:"text,omitempty"`
	ErrorKind    TranscriptionErrorKind `json:"errorKind,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Retryable    bool                   `json:"retryable"`
}

// SummaryOutcome is the per-session summarization state. SourceText records
// which transcription the summary was generated from; a summary is only
// valid for that exact text.
type SummaryOutcome struct {
	Phase        Phase            `json:"phase"`
	Markdown     string           `json:"markdown,omitempty"`
	ErrorKind    SummaryErrorKind `json:"errorKind,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	SourceText   string           `json:"sourceText,omitempty"`
}

// PersistedAudio describes a saved recording awaiting (or having finished)
// processing.
type PersistedAudio struct {
	Locator         string    `json:"locator"`
	DurationSeconds float64   `json:"durationSeconds"`
	SavedAt         time.Time `json:"savedAt"`
}

// HistoryEntry is a durable record of a past session. Immutable once
// created except for attaching a summary after the fact.
type HistoryEntry struct {
	ID              string  `json:"id"`
	Locator         string  `json:"locator"`
	DurationSeconds float64 `json:"durationSeconds"`
	Transcription   string  `json:"transcription"`
	CreatedAt       string  `json:"createdAt"`
	Summary         string  `json:"summary,omitempty"`
}

// Selection is the user's choice to view a historical entry instead of the
// live session. Empty means the live session is displayed.
type Selection struct {
	HistoryID string `json:"historyId,omitempty"`
}

// CaptureSnapshot is the externally visible capture-session state.
type CaptureSnapshot struct {
	State          CaptureState `json:"state"`
	ElapsedSeconds int          `json:"elapsedSeconds"`
	WarningFired   bool         `json:"warningFired"`
}

// SessionSnapshot is a consistent read of the whole session state store.
type SessionSnapshot struct {
	Capture       CaptureSnapshot      `json:"capture"`
	Recording     *PersistedAudio      `json:"recording,omitempty"`
	Transcription TranscriptionOutcome `json:"transcription"`
	Summary       SummaryOutcome       `json:"summary"`
	Selection     Selection            `json:"selection"`
}

// DisplaySource identifies where displayed content comes from.
type DisplaySource string

const (
	DisplaySourceLive    DisplaySource = "live"
	DisplaySourceHistory DisplaySource = "history"
)

// DisplayContent is what the UI should currently show, resolved from the
// live session and an optional historical selection.
type DisplayContent struct {
	Source             DisplaySource `json:"source"`
	HistoryID          string        `json:"historyId,omitempty"`
	TranscriptionPhase Phase         `json:"transcriptionPhase"`
	TranscriptionText  string        `json:"transcriptionText,omitempty"`
	SummaryPhase       Phase         `json:"summaryPhase"`
	SummaryMarkdown    string        `json:"summaryMarkdown,omitempty"`
}

// Status summarizes the current runtime status for the frontend.
type Status struct {
	State            CaptureState `json:"state"`
	Active           bool         `json:"active"`
	ElapsedSeconds   int          `json:"elapsedSeconds"`
	RemainingSeconds int          `json:"remainingSeconds"`
	Processing       bool         `json:"processing"`
	Message          string       `json:"message,omitempty"`
}
