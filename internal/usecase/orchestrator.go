package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"evervoice/internal/domain"
	"evervoice/internal/ports"
)

// Orchestrator sequences the two-phase remote pipeline for one persisted
// recording: transcription, then summarization, with the history entry
// created in between. A single atomic re-entry guard drops (never queues)
// a second concurrent invocation, and every state mutation is gated on the
// generation token captured at entry so a late result for a superseded
// session is discarded rather than applied.
type Orchestrator struct {
	transcriber ports.Transcriber
	summarizer  ports.Summarizer
	history     ports.HistoryStore
	state       *StateStore
	events      ports.EventSink
	log         *slog.Logger

	busy atomic.Bool

	// resetCapture returns the capture subsystem to idle once the pipeline
	// finishes, on success and failure alike.
	resetCapture func()
}

func NewOrchestrator(
	transcriber ports.Transcriber,
	summarizer ports.Summarizer,
	history ports.HistoryStore,
	state *StateStore,
	events ports.EventSink,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		transcriber: transcriber,
		summarizer:  summarizer,
		history:     history,
		state:       state,
		events:      events,
		log:         log,
	}
}

// SetCaptureReset wires the hook that returns the capture subsystem to
// idle after each pipeline run.
func (o *Orchestrator) SetCaptureReset(fn func()) {
	o.resetCapture = fn
}

// Processing reports whether a pipeline run is in flight.
func (o *Orchestrator) Processing() bool {
	return o.busy.Load()
}

// ProcessRecording runs transcription then summarization for the saved
// recording at locator. Re-entrant calls while a run is in flight are
// no-ops. Errors never escape: every failure lands in the state store and
// the event sink.
func (o *Orchestrator) ProcessRecording(ctx context.Context, locator string, durationSeconds float64) {
	if !o.busy.CompareAndSwap(false, true) {
		o.log.Debug("processing already in flight, dropping trigger", "locator", locator)
		return
	}
	defer o.busy.Store(false)

	gen := o.state.Generation()

	if !o.state.beginTranscription(gen) {
		return
	}
	o.events.TranscriptionUpdated(o.state.Snapshot().Transcription)
	o.events.CaptureStateChanged(domain.CaptureStateStopped, domain.ReasonTranscribing)

	res := o.transcriber.Transcribe(ctx, locator)
	if !res.Success {
		if o.state.failTranscription(gen, res.ErrorKind, res.ErrorMessage, res.Retryable) {
			o.events.TranscriptionUpdated(o.state.Snapshot().Transcription)
			o.events.SessionError(domain.ErrorCodeTranscription, res.ErrorMessage)
			o.events.CaptureStateChanged(domain.CaptureStateStopped, domain.ReasonTranscriptionFailed)
		}
		o.finish(gen)
		return
	}

	if !o.state.completeTranscription(gen, res.Text) {
		// A newer session superseded this one mid-call; discard the result.
		o.log.Info("discarding stale transcription result", "locator", locator)
		return
	}
	o.events.TranscriptionUpdated(o.state.Snapshot().Transcription)
	o.events.CaptureStateChanged(domain.CaptureStateStopped, domain.ReasonTranscriptionDone)

	entryID := o.recordHistory(gen, locator, durationSeconds, res.Text)

	o.summarize(ctx, gen, res.Text, entryID)
	o.finish(gen)
}

// recordHistory creates the durable entry for a successful transcription
// and points the selection at it so the upcoming summary has somewhere to
// attach. A persistence failure is reported but does not fail the
// pipeline: the transcription result is already visible.
func (o *Orchestrator) recordHistory(gen uint64, locator string, durationSeconds float64, text string) string {
	entry, err := o.history.Create(locator, durationSeconds, text)
	if err != nil {
		o.log.Error("persist history entry", "error", err)
		o.events.SessionError(domain.ErrorCodeHistory, "failed to save recording to history: "+err.Error())
		return ""
	}

	if !o.state.adoptSelection(gen, entry.ID) {
		return ""
	}
	o.events.HistoryChanged()
	return entry.ID
}

func (o *Orchestrator) summarize(ctx context.Context, gen uint64, text, entryID string) {
	if !o.state.beginSummary(gen) {
		return
	}
	o.events.SummaryUpdated(o.state.Snapshot().Summary)
	o.events.CaptureStateChanged(domain.CaptureStateStopped, domain.ReasonSummarizing)

	markdown, err := o.summarizer.Summarize(ctx, text)
	if err != nil {
		kind, message := summaryErrorParts(err)
		if o.state.failSummary(gen, kind, message) {
			o.events.SummaryUpdated(o.state.Snapshot().Summary)
			o.events.SessionError(domain.ErrorCodeSummarization, message)
			o.events.CaptureStateChanged(domain.CaptureStateStopped, domain.ReasonSummaryFailed)
		}
		return
	}

	if !o.state.completeSummary(gen, markdown, text) {
		o.log.Info("discarding stale summary result")
		return
	}
	o.events.SummaryUpdated(o.state.Snapshot().Summary)
	o.events.CaptureStateChanged(domain.CaptureStateStopped, domain.ReasonSummaryDone)

	// Attaching the summary to its history entry is best effort: the
	// summary stays visible even when it could not be saved.
	if entryID == "" {
		return
	}
	if err := o.history.AttachSummary(entryID, markdown); err != nil {
		o.log.Warn("attach summary to history entry", "entry", entryID, "error", err)
		o.events.SessionError(domain.ErrorCodeHistory, "summary generated but could not be saved to history")
		return
	}
	o.events.HistoryChanged()
}

// finish releases the session for the next recording: capture fields are
// reset while the pipeline outcomes stay on display.
func (o *Orchestrator) finish(gen uint64) {
	if !o.state.Current(gen) {
		return
	}
	o.state.ResetCapture()
	if o.resetCapture != nil {
		o.resetCapture()
	}
	o.events.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonReadyForNextSession)
}

func summaryErrorParts(err error) (domain.SummaryErrorKind, string) {
	var sumErr *ports.SummaryError
	if errors.As(err, &sumErr) {
		return sumErr.Kind, sumErr.Message
	}
	return domain.SummaryErrAPI, err.Error()
}
