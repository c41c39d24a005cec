package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"evervoice/internal/domain"
)

// Transcriber sends saved recordings to the audio transcription endpoint.
// Transient failures (network, rate limit) are retried up to three times
// with exponential backoff; all failures come back inside the result with
// a typed kind and a user-facing message.
type Transcriber struct {
	opts  Options
	creds Credentials
	log   *slog.Logger
}

func NewTranscriber(opts Options, creds Credentials, log *slog.Logger) *Transcriber {
	if log == nil {
		log = slog.Default()
	}
	return &Transcriber{opts: opts.withDefaults(), creds: creds, log: log}
}

func (t *Transcriber) Transcribe(ctx context.Context, locator string) domain.TranscriptionResult {
	apiKey, language := t.creds()
	if apiKey == "" {
		return failure(domain.TranscriptionErrAPIKeyNotConfigured,
			"API key not configured. Please add your OpenAI API key in Settings.")
	}

	if _, err := os.Stat(locator); err != nil {
		return failure(domain.TranscriptionErrFileNotFound,
			fmt.Sprintf("Recording file not found: %s", locator))
	}
	payload, err := os.ReadFile(locator)
	if err != nil {
		return failure(domain.TranscriptionErrFileRead,
			"Failed to read recording file. Please try recording again.")
	}

	var last domain.TranscriptionResult
	for attempt := 0; attempt < maxAttempts; attempt++ {
		last = t.callWhisper(ctx, payload, filepath.Base(locator), apiKey, language)
		if last.Success || !last.Retryable {
			return last
		}
		if attempt < maxAttempts-1 {
			delay := t.opts.RetryBaseDelay * (1 << attempt)
			t.log.Info("transcription attempt failed, retrying",
				"attempt", attempt+1, "delay", delay, "kind", last.ErrorKind)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return last
			}
		}
	}
	return last
}

func (t *Transcriber) callWhisper(ctx context.Context, payload []byte, fileName, apiKey, language string) domain.TranscriptionResult {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return failure(domain.TranscriptionErrUnknown, "An unexpected error occurred: "+err.Error())
	}
	if _, err := part.Write(payload); err != nil {
		return failure(domain.TranscriptionErrUnknown, "An unexpected error occurred: "+err.Error())
	}
	_ = writer.WriteField("model", t.opts.TranscriptionModel)
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return failure(domain.TranscriptionErrUnknown, "An unexpected error occurred: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return failure(domain.TranscriptionErrUnknown, "An unexpected error occurred: "+err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.opts.HTTPClient.Do(req)
	if err != nil {
		return retryableFailure(domain.TranscriptionErrNetwork,
			"Transcription failed - please try again. Check your internet connection.")
	}
	defer resp.Body.Close()

	return t.decodeWhisperResponse(resp)
}

func (t *Transcriber) decodeWhisperResponse(resp *http.Response) domain.TranscriptionResult {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(domain.TranscriptionErrAPI, "Transcription failed: could not read response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var parsed struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return failure(domain.TranscriptionErrAPI, "Transcription failed: could not parse response")
		}
		return domain.TranscriptionResult{Success: true, Text: parsed.Text}

	case resp.StatusCode == http.StatusUnauthorized:
		return failure(domain.TranscriptionErrInvalidAPIKey,
			"Invalid API key. Please check your OpenAI API key in Settings.")

	case resp.StatusCode == http.StatusTooManyRequests:
		return retryableFailure(domain.TranscriptionErrRateLimit,
			"Rate limit exceeded - please wait a moment and try again.")

	case resp.StatusCode == http.StatusBadRequest:
		var parsed apiErrorResponse
		if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Error.Message == "" {
			return failure(domain.TranscriptionErrInvalidAudioFormat,
				"Invalid audio format. Please try recording again.")
		}
		message := parsed.Error.Message
		if strings.Contains(message, "audio") || strings.Contains(message, "format") {
			return failure(domain.TranscriptionErrInvalidAudioFormat,
				"Invalid audio format. Please try recording again.")
		}
		return failure(domain.TranscriptionErrAPI, "Transcription failed: "+message)

	case resp.StatusCode >= 500:
		return retryableFailure(domain.TranscriptionErrNetwork,
			"Transcription failed - please try again. Check your internet connection.")

	default:
		return failure(domain.TranscriptionErrAPI, "Transcription failed: "+strings.TrimSpace(string(raw)))
	}
}

func failure(kind domain.TranscriptionErrorKind, message string) domain.TranscriptionResult {
	return domain.TranscriptionResult{
		Success:      false,
		ErrorKind:    kind,
		ErrorMessage: message,
		Retryable:    kind.Retryable(),
	}
}

func retryableFailure(kind domain.TranscriptionErrorKind, message string) domain.TranscriptionResult {
	res := failure(kind, message)
	res.Retryable = true
	return res
}
