// Package openai implements the transcription and summarization ports
// against the OpenAI HTTP API.
package openai

import (
	"net/http"
	"time"
)

const (
	defaultBaseURL            = "https://api.openai.com/v1"
	defaultTranscriptionModel = "whisper-1"
	defaultSummaryModel       = "gpt-4o-mini"

	maxAttempts      = 3
	defaultBaseDelay = time.Second
)

// Credentials supplies the API key and transcription language at call
// time, so settings changes apply without rebuilding the providers.
type Credentials func() (apiKey, language string)

// Options configures both providers. Zero values take defaults.
type Options struct {
	BaseURL            string
	TranscriptionModel string
	SummaryModel       string
	HTTPClient         *http.Client
	// RetryBaseDelay is the backoff unit between transient-failure
	// retries. Tests shrink it.
	RetryBaseDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.TranscriptionModel == "" {
		o.TranscriptionModel = defaultTranscriptionModel
	}
	if o.SummaryModel == "" {
		o.SummaryModel = defaultSummaryModel
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = defaultBaseDelay
	}
	return o
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// languageName maps ISO 639-1 codes to the names used in the
// summarization prompt.
func languageName(code string) string {
	switch code {
	case "de":
		return "German"
	case "en":
		return "English"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "it":
		return "Italian"
	case "pt":
		return "Portuguese"
	case "nl":
		return "Dutch"
	case "pl":
		return "Polish"
	case "ru":
		return "Russian"
	case "ja":
		return "Japanese"
	case "zh":
		return "Chinese"
	case "ko":
		return "Korean"
	default:
		return "the same language as the transcription"
	}
}
