package main

import (
	"errors"
	"testing"

	"evervoice/internal/domain"
)

func TestStateReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.StateReason]string{
		domain.ReasonStartupComplete:     "Ready",
		domain.ReasonRecordingStarted:    "Recording started",
		domain.ReasonRecordingResumed:    "Recording resumed",
		domain.ReasonRecordingPaused:     "Recording paused",
		domain.ReasonRecordingStopped:    "Recording stopped",
		domain.ReasonRecordingDiscarded:  "Recording discarded",
		domain.ReasonMaxDurationReached:  "Maximum duration reached. Recording stopped",
		domain.ReasonNoAudioCaptured:     "No audio captured",
		domain.ReasonTranscribing:        "Transcribing...",
		domain.ReasonTranscriptionDone:   "Transcription complete",
		domain.ReasonTranscriptionFailed: "Transcription failed",
		domain.ReasonSummarizing:         "Summarizing...",
		domain.ReasonSummaryDone:         "Summary complete",
		domain.ReasonSummaryFailed:       "Summary failed",
		domain.ReasonReadyForNextSession: "Ready for next session",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := stateReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := stateReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:       "Startup failed",
		domain.ErrorCodeCapture:       "Recording failed",
		domain.ErrorCodeStorage:       "Could not save recording",
		domain.ErrorCodeTranscription: "Transcription error",
		domain.ErrorCodeSummarization: "Summarization error",
		domain.ErrorCodeHistory:       "History update failed",
		domain.ErrorCodeHotkey:        "Global hotkey unavailable",
		domain.ErrorCodeWebhook:       "External service call failed",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.CaptureStateIdle || status.Active {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot")
	status = app.GetStatus()
	if status.State != domain.CaptureStateIdle || status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
}

func TestGetDisplayWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	display := app.GetDisplay()
	if display.Source != domain.DisplaySourceLive {
		t.Fatalf("expected live display, got %+v", display)
	}
	if display.TranscriptionPhase != domain.PhaseIdle || display.SummaryPhase != domain.PhaseIdle {
		t.Fatalf("expected idle phases, got %+v", display)
	}
}

func TestCallExternalServiceWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	resp := app.CallExternalService("https://example.com/hook", "text")
	if resp.Success || resp.ErrorType != "service_error" {
		t.Fatalf("expected service_error failure, got %+v", resp)
	}
}
