package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"evervoice/internal/bootstrap"
	"evervoice/internal/domain"
	"evervoice/internal/providers/webhook"
	"evervoice/internal/settings"
	"evervoice/internal/usecase"
)

const (
	eventState         = "evervoice:state"
	eventDuration      = "evervoice:duration"
	eventTranscription = "evervoice:transcription"
	eventSummary       = "evervoice:summary"
	eventHistory       = "evervoice:history"
	eventError         = "evervoice:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	services   bootstrap.Services
	controller *usecase.SessionController
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, slog.Default())
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services = services
	a.controller = services.Controller

	a.registerHotkey(services.Settings.Get().EffectiveGlobalHotkey())
	a.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonStartupComplete)
}

func (a *App) shutdown(context.Context) {
	if a.controller != nil {
		if err := a.services.Close(); err != nil {
			slog.Error("shutdown cleanup failed", "error", err)
		}
	}
}

// registerHotkey binds the global toggle. Failure is reported but never
// prevents the app from running; recording stays available from the UI.
func (a *App) registerHotkey(combo string) {
	err := a.services.Hotkeys.Register(combo, func() {
		if err := a.controller.Toggle(context.Background()); err != nil {
			slog.Error("hotkey toggle failed", "error", err)
		}
	})
	if err != nil {
		slog.Error("hotkey registration failed", "combo", combo, "error", err)
		a.SessionError(domain.ErrorCodeHotkey, err.Error())
	}
}

// StartRecording begins a new session, or resumes a paused one.
func (a *App) StartRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Start(a.ctx)
}

// PauseRecording suspends the active session.
func (a *App) PauseRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Pause()
}

// ResumeRecording continues a paused session.
func (a *App) ResumeRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Resume()
}

// StopRecording finalizes the session and runs the processing pipeline.
// A session without audio is not an error to the caller; the reset is
// already announced through events.
func (a *App) StopRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.controller.Stop(a.ctx); err != nil && !errors.Is(err, usecase.ErrNoAudioCaptured) {
		return err
	}
	return nil
}

// DiscardRecording abandons the active session without processing.
func (a *App) DiscardRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.Discard()
	return nil
}

// RetryProcessing re-runs the pipeline against the saved recording.
func (a *App) RetryProcessing() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Retry(a.ctx)
}

// ToggleRecording implements the hotkey contract for the UI button.
func (a *App) ToggleRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.controller.Toggle(a.ctx); err != nil && !errors.Is(err, usecase.ErrNoAudioCaptured) {
		return err
	}
	return nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.CaptureStateIdle, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.CaptureStateIdle}
	}
	return a.controller.Status()
}

// GetDisplay resolves what the UI should show, honoring any history
// selection.
func (a *App) GetDisplay() domain.DisplayContent {
	if a.controller == nil {
		return domain.DisplayContent{
			Source:             domain.DisplaySourceLive,
			TranscriptionPhase: domain.PhaseIdle,
			SummaryPhase:       domain.PhaseIdle,
		}
	}
	entries, err := a.services.History.List()
	if err != nil {
		a.SessionError(domain.ErrorCodeHistory, err.Error())
		entries = nil
	}
	return a.controller.Display(entries)
}

// SelectHistoryEntry switches the display to a past session. An empty id
// returns to the live session.
func (a *App) SelectHistoryEntry(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.SelectEntry(id)
	return nil
}

// ListHistory returns all stored sessions, newest first.
func (a *App) ListHistory() ([]domain.HistoryEntry, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.History.List()
}

// DeleteHistoryEntry removes a stored session and its audio file.
func (a *App) DeleteHistoryEntry(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if a.controller.SelectedEntry() == id {
		a.controller.SelectEntry("")
	}
	if err := a.services.History.Delete(id); err != nil {
		a.SessionError(domain.ErrorCodeHistory, err.Error())
		return err
	}
	a.HistoryChanged()
	return nil
}

// GetSettings returns the current user settings.
func (a *App) GetSettings() (settings.Settings, error) {
	if err := a.requireReady(); err != nil {
		return settings.Settings{}, err
	}
	return a.services.Settings.Get(), nil
}

// SaveSettings validates, persists and applies new settings. A changed
// hotkey is re-registered immediately.
func (a *App) SaveSettings(next settings.Settings) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	prev := a.services.Settings.Get().EffectiveGlobalHotkey()
	if err := a.services.Settings.Update(next); err != nil {
		return err
	}
	if combo := next.EffectiveGlobalHotkey(); combo != prev {
		a.registerHotkey(combo)
	}
	return nil
}

// CallExternalService posts transcription text to a user-configured
// custom action endpoint.
func (a *App) CallExternalService(url, text string) webhook.Response {
	if err := a.requireReady(); err != nil {
		return webhook.Response{Success: false, Message: err.Error(), ErrorType: "service_error"}
	}
	resp := a.services.Webhook.Call(a.ctx, url, text)
	if !resp.Success {
		a.SessionError(domain.ErrorCodeWebhook, resp.Message)
	}
	return resp
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// CaptureStateChanged emits capture lifecycle updates to the frontend.
func (a *App) CaptureStateChanged(state domain.CaptureState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// DurationTick emits the elapsed-time counter.
func (a *App) DurationTick(elapsedSeconds, remainingSeconds int, warning bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDuration, map[string]any{
		"elapsedSeconds":   elapsedSeconds,
		"remainingSeconds": remainingSeconds,
		"warning":          warning,
	})
}

// TranscriptionUpdated emits transcription progress and results.
func (a *App) TranscriptionUpdated(outcome domain.TranscriptionOutcome) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscription, outcome)
}

// SummaryUpdated emits summarization progress and results.
func (a *App) SummaryUpdated(outcome domain.SummaryOutcome) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSummary, outcome)
}

// HistoryChanged tells the frontend to refresh its history list.
func (a *App) HistoryChanged() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventHistory)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.ReasonStartupComplete:
		return "Ready"
	case domain.ReasonRecordingStarted:
		return "Recording started"
	case domain.ReasonRecordingResumed:
		return "Recording resumed"
	case domain.ReasonRecordingPaused:
		return "Recording paused"
	case domain.ReasonRecordingStopped:
		return "Recording stopped"
	case domain.ReasonRecordingDiscarded:
		return "Recording discarded"
	case domain.ReasonMaxDurationReached:
		return "Maximum duration reached. Recording stopped"
	case domain.ReasonNoAudioCaptured:
		return "No audio captured"
	case domain.ReasonTranscribing:
		return "Transcribing..."
	case domain.ReasonTranscriptionDone:
		return "Transcription complete"
	case domain.ReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.ReasonSummarizing:
		return "Summarizing..."
	case domain.ReasonSummaryDone:
		return "Summary complete"
	case domain.ReasonSummaryFailed:
		return "Summary failed"
	case domain.ReasonReadyForNextSession:
		return "Ready for next session"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCapture:
		return "Recording failed"
	case domain.ErrorCodeStorage:
		return "Could not save recording"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeSummarization:
		return "Summarization error"
	case domain.ErrorCodeHistory:
		return "History update failed"
	case domain.ErrorCodeHotkey:
		return "Global hotkey unavailable"
	case domain.ErrorCodeWebhook:
		return "External service call failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
