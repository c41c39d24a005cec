package usecase

import (
	"sync"

	"evervoice/internal/domain"
)

// StateStore is the single writer-of-record for session state. All
// mutations go through its methods; other components read snapshots.
//
// The generation counter identifies the current session. Operations that
// supersede a session (ClearForNewSession, FullReset) bump it, and
// generation-checked mutators refuse to apply results captured under an
// older generation, so a late transcription or summary callback cannot
// corrupt newer state.
type StateStore struct {
	mu         sync.Mutex
	generation uint64

	capture       domain.CaptureSnapshot
	recording     *domain.PersistedAudio
	transcription domain.TranscriptionOutcome
	summary       domain.SummaryOutcome
	selection     domain.Selection
}

func NewStateStore() *StateStore {
	return &StateStore{
		capture:       domain.CaptureSnapshot{State: domain.CaptureStateIdle},
		transcription: domain.TranscriptionOutcome{Phase: domain.PhaseIdle},
		summary:       domain.SummaryOutcome{Phase: domain.PhaseIdle},
	}
}

// Snapshot returns a consistent copy of the whole store.
func (s *StateStore) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.SessionSnapshot{
		Capture:       s.capture,
		Transcription: s.transcription,
		Summary:       s.summary,
		Selection:     s.selection,
	}
	if s.recording != nil {
		rec := *s.recording
		snap.Recording = &rec
	}
	return snap
}

// Generation returns the current session generation token.
func (s *StateStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Current reports whether gen still identifies the live session.
func (s *StateStore) Current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

func (s *StateStore) SetCaptureState(state domain.CaptureState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture.State = state
}

func (s *StateStore) SetElapsed(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture.ElapsedSeconds = seconds
}

func (s *StateStore) SetWarningFired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture.WarningFired = true
}

func (s *StateStore) SetRecording(rec *domain.PersistedAudio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec == nil {
		s.recording = nil
		return
	}
	copied := *rec
	s.recording = &copied
}

// beginTranscription moves the transcription outcome to running. The phase
// only moves forward within a run: a second begin while already running is
// refused, which is what makes the orchestrator's re-entry guard
// observable in state. Terminal phases from a previous session may be
// overwritten directly.
func (s *StateStore) beginTranscription(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.transcription.Phase == domain.PhaseRunning {
		return false
	}
	s.transcription = domain.TranscriptionOutcome{Phase: domain.PhaseRunning}
	return true
}

func (s *StateStore) completeTranscription(gen uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.transcription.Phase != domain.PhaseRunning {
		return false
	}
	s.transcription = domain.TranscriptionOutcome{Phase: domain.PhaseSuccess, Text: text}
	return true
}

func (s *StateStore) failTranscription(gen uint64, kind domain.TranscriptionErrorKind, message string, retryable bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.transcription.Phase != domain.PhaseRunning {
		return false
	}
	s.transcription = domain.TranscriptionOutcome{
		Phase:        domain.PhaseFailed,
		ErrorKind:    kind,
		ErrorMessage: message,
		Retryable:    retryable,
	}
	return true
}

// beginSummary moves the summary outcome to running. Requires a successful
// transcription; a summary can never run ahead of its source text.
func (s *StateStore) beginSummary(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.transcription.Phase != domain.PhaseSuccess || s.summary.Phase == domain.PhaseRunning {
		return false
	}
	s.summary = domain.SummaryOutcome{Phase: domain.PhaseRunning}
	return true
}

func (s *StateStore) completeSummary(gen uint64, markdown, sourceText string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.summary.Phase != domain.PhaseRunning {
		return false
	}
	s.summary = domain.SummaryOutcome{
		Phase:      domain.PhaseSuccess,
		Markdown:   markdown,
		SourceText: sourceText,
	}
	return true
}

func (s *StateStore) failSummary(gen uint64, kind domain.SummaryErrorKind, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.summary.Phase != domain.PhaseRunning {
		return false
	}
	s.summary = domain.SummaryOutcome{
		Phase:        domain.PhaseFailed,
		ErrorKind:    kind,
		ErrorMessage: message,
	}
	return true
}

// adoptSelection points the selection at a freshly created history entry so
// a subsequently generated summary has somewhere to attach. Unlike
// SelectEntry it does not clear summary state: the pipeline is about to
// produce the summary for exactly this entry.
func (s *StateStore) adoptSelection(gen uint64, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.selection = domain.Selection{HistoryID: id}
	return true
}

// SelectEntry records a user-initiated selection change. Any live summary
// display is cleared in both directions: a summary is only valid for the
// transcription it was computed from, and the displayed transcription just
// changed.
func (s *StateStore) SelectEntry(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = domain.Selection{HistoryID: id}
	s.summary = domain.SummaryOutcome{Phase: domain.PhaseIdle}
}

// ClearForRetry resets both pipeline outcomes so a failed transcription can
// be retried without re-recording. The persisted audio and its duration
// survive.
func (s *StateStore) ClearForRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcription = domain.TranscriptionOutcome{Phase: domain.PhaseIdle}
	s.summary = domain.SummaryOutcome{Phase: domain.PhaseIdle}
}

// ClearForNewSession prepares the store for a fresh recording. Capture
// fields, the persisted audio, the summary and the selection reset; the
// transcription display fields are retained until the next successful
// capture overwrites them, so a completed result stays visible until
// superseded. Bumps the generation: in-flight callbacks from the previous
// session become stale.
func (s *StateStore) ClearForNewSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.capture = domain.CaptureSnapshot{State: domain.CaptureStateIdle}
	s.recording = nil
	s.summary = domain.SummaryOutcome{Phase: domain.PhaseIdle}
	s.selection = domain.Selection{}
	// A run left in flight by the superseded session must not block the
	// new one; only terminal phases are worth keeping on display.
	if s.transcription.Phase == domain.PhaseRunning {
		s.transcription = domain.TranscriptionOutcome{Phase: domain.PhaseIdle}
	}
}

// ClearSummaryOnly drops the summary display, leaving everything else.
func (s *StateStore) ClearSummaryOnly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = domain.SummaryOutcome{Phase: domain.PhaseIdle}
}

// ResetCapture returns only the capture-session fields to their initial
// values, keeping pipeline outcomes and the persisted audio so the UI can
// show the just-produced result (or retry a failure) while ready for a new
// recording.
func (s *StateStore) ResetCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture = domain.CaptureSnapshot{State: domain.CaptureStateIdle}
}

// FullReset returns every field to its initial value and bumps the
// generation.
func (s *StateStore) FullReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.capture = domain.CaptureSnapshot{State: domain.CaptureStateIdle}
	s.recording = nil
	s.transcription = domain.TranscriptionOutcome{Phase: domain.PhaseIdle}
	s.summary = domain.SummaryOutcome{Phase: domain.PhaseIdle}
	s.selection = domain.Selection{}
}
