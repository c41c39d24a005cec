package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"evervoice/internal/domain"
	"evervoice/internal/ports"
)

// FFMPEGCapture acquires microphone audio by running ffmpeg and streaming
// a WAV container from its stdout. Acquisition failures are classified
// into typed capture errors from the process state and stderr output.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func (c *FFMPEGCapture) Acquire(ctx context.Context, cfg ports.DeviceConfig) (ports.DeviceHandle, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	if _, err := exec.LookPath(c.command); err != nil {
		return nil, &domain.CaptureError{
			Kind:   domain.CaptureErrNotSupported,
			Detail: fmt.Sprintf("recorder binary %q not found", c.command),
		}
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "wav",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &domain.CaptureError{
			Kind:   domain.CaptureErrRecorder,
			Detail: "failed to create recorder stdout pipe: " + err.Error(),
		}
	}
	if err := cmd.Start(); err != nil {
		return nil, &domain.CaptureError{
			Kind:   domain.CaptureErrRecorder,
			Detail: "failed to start recorder: " + err.Error(),
		}
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// ffmpeg exits immediately when the device cannot be opened; give it
	// a short window so that failure surfaces as a typed error instead
	// of an empty capture.
	select {
	case <-waitErr:
		return nil, classifyAcquireFailure(stderr.String())
	case <-time.After(250 * time.Millisecond):
	}

	return &ffmpegHandle{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

func classifyAcquireFailure(stderr string) *domain.CaptureError {
	detail := strings.TrimSpace(stderr)
	lowered := strings.ToLower(detail)

	kind := domain.CaptureErrUnknown
	switch {
	case strings.Contains(lowered, "permission denied") || strings.Contains(lowered, "access denied"):
		kind = domain.CaptureErrPermissionDenied
	case strings.Contains(lowered, "no such") || strings.Contains(lowered, "not found") || strings.Contains(lowered, "cannot open"):
		kind = domain.CaptureErrDeviceNotFound
	case strings.Contains(lowered, "unknown input format") || strings.Contains(lowered, "not supported"):
		kind = domain.CaptureErrNotSupported
	case detail != "":
		kind = domain.CaptureErrRecorder
	}
	if detail == "" {
		detail = "recorder exited before capture started"
	}
	return &domain.CaptureError{Kind: kind, Detail: detail}
}

type ffmpegHandle struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	releaseOnce sync.Once
	releaseErr  error
}

func (h *ffmpegHandle) Read(p []byte) (int, error) {
	return h.stdout.Read(p)
}

func (h *ffmpegHandle) MimeType() string { return "audio/wav" }

func (h *ffmpegHandle) Close() error {
	return h.Release()
}

// Release asks ffmpeg to finalize the WAV stream and exit, escalating to a
// kill if it does not comply in time.
func (h *ffmpegHandle) Release() error {
	h.releaseOnce.Do(func() {
		if h.process != nil {
			_ = h.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-h.waitErr:
			if ok {
				h.releaseErr = normalizeExitErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if h.process != nil {
				_ = h.process.Kill()
			}
			err, ok := <-h.waitErr
			if ok {
				h.releaseErr = normalizeExitErr(err)
			}
		}

		if closeErr := h.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if h.releaseErr == nil {
				h.releaseErr = closeErr
			}
		}

		if h.releaseErr != nil && h.stderr != nil && h.stderr.Len() > 0 {
			h.releaseErr = fmt.Errorf("%w: %s", h.releaseErr, strings.TrimSpace(h.stderr.String()))
		}
	})

	return h.releaseErr
}

// normalizeExitErr drops the non-zero exit status ffmpeg reports when
// interrupted mid-stream; that is the normal shutdown path.
func normalizeExitErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
