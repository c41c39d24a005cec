package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"evervoice/internal/domain"
	"evervoice/internal/ports"
)

// Summarizer turns a transcription into Markdown bullet points via the
// chat completions endpoint. Failures are returned as *ports.SummaryError
// so callers can branch on the kind.
type Summarizer struct {
	opts  Options
	creds Credentials
}

func NewSummarizer(opts Options, creds Credentials) *Summarizer {
	return &Summarizer{opts: opts.withDefaults(), creds: creds}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrEmptyText,
			Message: "Cannot summarize empty text.",
		}
	}

	apiKey, language := s.creds()
	if apiKey == "" {
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrAPIKeyNotConfigured,
			Message: "API key not configured. Please add your OpenAI API key in Settings.",
		}
	}

	payload, err := json.Marshal(chatRequest{
		Model: s.opts.SummaryModel,
		Messages: []chatMessage{
			{Role: "system", Content: summaryPrompt(language)},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrAPI,
			Message: "Summarization failed: could not build request",
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrAPI,
			Message: "Summarization failed: " + err.Error(),
		}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrNetwork,
			Message: "Summarization failed - please try again. Check your internet connection.",
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrAPI,
			Message: "Summarization failed: could not read response",
		}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", &ports.SummaryError{
				Kind:    domain.SummaryErrAPI,
				Message: "Summarization failed: could not parse response",
			}
		}
		if len(parsed.Choices) == 0 {
			return "", &ports.SummaryError{
				Kind:    domain.SummaryErrAPI,
				Message: "Summarization failed: empty response",
			}
		}
		return parsed.Choices[0].Message.Content, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrInvalidAPIKey,
			Message: "Invalid API key. Please check your OpenAI API key in Settings.",
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrRateLimit,
			Message: "Rate limit exceeded - please wait a moment and try again.",
		}

	default:
		message := strings.TrimSpace(string(raw))
		var parsed apiErrorResponse
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return "", &ports.SummaryError{
			Kind:    domain.SummaryErrAPI,
			Message: "Summarization failed: " + message,
		}
	}
}

func summaryPrompt(language string) string {
	return fmt.Sprintf(
		"Summarize the following transcription into concise Markdown-formatted bullet points. Respond in %s.",
		languageName(language),
	)
}
