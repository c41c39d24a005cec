package usecase

import (
	"context"
	"errors"
	"time"

	"evervoice/internal/domain"
	"evervoice/internal/ports"
)

var (
	ErrNoAudioCaptured = errors.New("recording produced no audio")
	ErrNothingToRetry  = errors.New("no saved recording to retry")
)

// SessionController is the facade the UI layer talks to. It coordinates the
// capture engine, the duration tracker, persistence and the processing
// pipeline for one session at a time, and owns the event emissions for the
// capture half of the lifecycle (the orchestrator emits for the processing
// half).
type SessionController struct {
	engine       *CaptureEngine
	tracker      *DurationTracker
	orchestrator *Orchestrator
	state        *StateStore
	recordings   ports.RecordingStore
	events       ports.EventSink

	// budgetSeconds is consulted at session start so a settings change
	// applies to the next session, never mid-session.
	budgetSeconds func() int
}

func NewSessionController(
	engine *CaptureEngine,
	tracker *DurationTracker,
	orchestrator *Orchestrator,
	state *StateStore,
	recordings ports.RecordingStore,
	events ports.EventSink,
	budgetSeconds func() int,
) *SessionController {
	c := &SessionController{
		engine:        engine,
		tracker:       tracker,
		orchestrator:  orchestrator,
		state:         state,
		recordings:    recordings,
		events:        events,
		budgetSeconds: budgetSeconds,
	}

	// The engine's transitions keep the store's capture state current;
	// UI events are emitted explicitly by the controller and orchestrator.
	engine.OnTransition(func(st domain.CaptureState, _ domain.StateReason) {
		state.SetCaptureState(st)
	})
	tracker.OnTick(func(elapsed, _ int, _ bool) {
		state.SetElapsed(elapsed)
	})
	tracker.OnWarning(func(int) {
		state.SetWarningFired()
	})
	tracker.OnMaxReached(func() {
		c.autoStop()
	})
	orchestrator.SetCaptureReset(func() {
		engine.Reset(domain.ReasonReadyForNextSession)
	})

	return c
}

// Start begins a new session, or resumes a paused one. A fresh session
// clears the previous session's capture and summary state while keeping
// the last transcription on display until new results supersede it.
func (c *SessionController) Start(ctx context.Context) error {
	if c.engine.State() == domain.CaptureStatePaused {
		if err := c.engine.Resume(); err != nil {
			return err
		}
		c.tracker.Resume()
		c.events.CaptureStateChanged(domain.CaptureStateCapturing, domain.ReasonRecordingResumed)
		return nil
	}

	c.state.ClearForNewSession()
	if budget := c.budgetSeconds(); budget > 0 {
		c.tracker.SetBudget(budget)
	}

	if err := c.engine.Start(ctx); err != nil {
		var capErr *domain.CaptureError
		if errors.As(err, &capErr) {
			c.events.SessionError(domain.ErrorCodeCapture, capErr.Error())
		}
		return err
	}
	c.tracker.Start()

	c.events.CaptureStateChanged(domain.CaptureStateCapturing, domain.ReasonRecordingStarted)
	return nil
}

// Pause suspends capture and the elapsed counter.
func (c *SessionController) Pause() error {
	if err := c.engine.Pause(); err != nil {
		return err
	}
	c.tracker.Pause()
	c.events.CaptureStateChanged(domain.CaptureStatePaused, domain.ReasonRecordingPaused)
	return nil
}

// Resume restarts capture and the elapsed counter after a pause.
func (c *SessionController) Resume() error {
	if err := c.engine.Resume(); err != nil {
		return err
	}
	c.tracker.Resume()
	c.events.CaptureStateChanged(domain.CaptureStateCapturing, domain.ReasonRecordingResumed)
	return nil
}

// Stop finalizes capture, persists the payload and runs the processing
// pipeline synchronously. An empty payload skips persistence and
// processing entirely.
func (c *SessionController) Stop(ctx context.Context) error {
	return c.stop(ctx, domain.ReasonRecordingStopped)
}

func (c *SessionController) stop(ctx context.Context, reason domain.StateReason) error {
	payload, mimeType, duration, err := c.engine.Stop()
	if err != nil {
		return err
	}
	c.tracker.Stop()
	c.state.SetElapsed(c.tracker.Elapsed())
	c.events.CaptureStateChanged(domain.CaptureStateStopped, reason)

	if len(payload) == 0 {
		c.engine.Reset(domain.ReasonNoAudioCaptured)
		c.state.ResetCapture()
		c.events.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonNoAudioCaptured)
		return ErrNoAudioCaptured
	}

	locator, err := c.recordings.Save(payload, mimeType)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeStorage, "failed to save recording: "+err.Error())
		c.engine.Reset(domain.ReasonReadyForNextSession)
		c.state.ResetCapture()
		c.events.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonReadyForNextSession)
		return err
	}

	c.state.SetRecording(&domain.PersistedAudio{
		Locator:         locator,
		DurationSeconds: duration,
		SavedAt:         time.Now(),
	})

	c.orchestrator.ProcessRecording(ctx, locator, duration)
	return nil
}

// autoStop runs when the duration budget is exhausted.
func (c *SessionController) autoStop() {
	if err := c.stop(context.Background(), domain.ReasonMaxDurationReached); err != nil && !errors.Is(err, ErrNoAudioCaptured) {
		c.events.SessionError(domain.ErrorCodeCapture, "automatic stop failed: "+err.Error())
	}
}

// Discard abandons the active session without persisting or processing.
func (c *SessionController) Discard() {
	c.tracker.Stop()
	c.engine.Reset(domain.ReasonRecordingDiscarded)
	c.state.ResetCapture()
	c.events.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonRecordingDiscarded)
}

// Retry re-runs the processing pipeline against the already persisted
// recording, without re-capturing audio.
func (c *SessionController) Retry(ctx context.Context) error {
	snap := c.state.Snapshot()
	if snap.Recording == nil {
		return ErrNothingToRetry
	}

	c.state.ClearForRetry()
	c.orchestrator.ProcessRecording(ctx, snap.Recording.Locator, snap.Recording.DurationSeconds)
	return nil
}

// Toggle implements the hotkey contract: idle or stopped starts a session,
// capturing or paused stops it. Triggers during processing are dropped.
func (c *SessionController) Toggle(ctx context.Context) error {
	if c.orchestrator.Processing() {
		return nil
	}
	switch c.engine.State() {
	case domain.CaptureStateCapturing, domain.CaptureStatePaused:
		return c.Stop(ctx)
	default:
		return c.Start(ctx)
	}
}

// Status reports the current runtime status.
func (c *SessionController) Status() domain.Status {
	st := c.engine.State()
	return domain.Status{
		State:            st,
		Active:           st == domain.CaptureStateCapturing || st == domain.CaptureStatePaused,
		ElapsedSeconds:   c.tracker.Elapsed(),
		RemainingSeconds: c.tracker.Remaining(),
		Processing:       c.orchestrator.Processing(),
	}
}

// Display resolves what the UI should currently show, honoring any history
// selection.
func (c *SessionController) Display(entries []domain.HistoryEntry) domain.DisplayContent {
	return ResolveDisplay(c.state.Snapshot(), entries)
}

// SelectEntry changes the history selection. An empty id deselects and
// returns the display to the live session.
func (c *SessionController) SelectEntry(id string) {
	c.state.SelectEntry(id)
}

// SelectedEntry returns the current history selection, empty when the
// live session is displayed.
func (c *SessionController) SelectedEntry() string {
	return c.state.Snapshot().Selection.HistoryID
}
