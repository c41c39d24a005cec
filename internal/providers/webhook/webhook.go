// Package webhook posts transcription text to user-configured custom
// action endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	errTypeInvalidURL = "invalid_url"
	errTypeNetwork    = "network_error"
	errTypeService    = "service_error"
)

// Response is what the frontend receives for a custom action call.
// Failures are reported in-band so a flaky endpoint never surfaces as
// an exception in the UI.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

type Caller struct {
	client *http.Client
}

func NewCaller(client *http.Client) *Caller {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Caller{client: client}
}

// ValidateURL accepts only http:// and https:// endpoints, case
// insensitively.
func ValidateURL(rawURL string) error {
	lower := strings.ToLower(rawURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return nil
	}
	return fmt.Errorf("invalid URL '%s'. URL must start with http:// or https://", rawURL)
}

// Call posts {"text": <text>} as JSON to the given URL and reports the
// outcome. The endpoint's response body is passed through as the
// message on success.
func (c *Caller) Call(ctx context.Context, rawURL, text string) Response {
	if err := ValidateURL(rawURL); err != nil {
		return Response{Success: false, Message: capitalize(err.Error()), ErrorType: errTypeInvalidURL}
	}

	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return Response{
			Success:   false,
			Message:   "External service returned an error: failed to serialize request",
			ErrorType: errTypeService,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return Response{
			Success:   false,
			Message:   fmt.Sprintf("Invalid URL '%s'. URL must start with http:// or https://", rawURL),
			ErrorType: errTypeInvalidURL,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{
			Success:   false,
			Message:   "Failed to connect to external service. Please check your internet connection.",
			ErrorType: errTypeNetwork,
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		message := "OK"
		if readErr == nil && len(body) > 0 {
			message = string(body)
		}
		return Response{Success: true, Message: message}
	}

	detail := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if readErr == nil && len(bytes.TrimSpace(body)) > 0 {
		detail = strings.TrimSpace(string(body))
	}
	return Response{
		Success:   false,
		Message:   "External service returned an error: " + detail,
		ErrorType: errTypeService,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
