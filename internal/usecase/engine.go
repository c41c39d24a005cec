package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"evervoice/internal/domain"
	"evervoice/internal/ports"
)

var (
	ErrNotCapturing = errors.New("no capture in progress")
	ErrNotPaused    = errors.New("capture is not paused")
	ErrBusy         = errors.New("capture already in progress")
)

// TransitionFunc observes capture state transitions.
type TransitionFunc func(state domain.CaptureState, reason domain.StateReason)

// CaptureEngine owns the device handle for a single recording session:
// acquisition, pause/resume, chunk accumulation and the wall-clock
// bookkeeping that excludes paused intervals from the reported duration.
//
// The engine publishes every transition to its subscribers; the session
// store and the UI sink subscribe once instead of polling.
type CaptureEngine struct {
	device    ports.DeviceCapture
	cfg       ports.DeviceConfig
	chunkSize int
	events    ports.EventSink

	mu          sync.Mutex
	state       domain.CaptureState
	handle      ports.DeviceHandle
	pumpDone    chan struct{}
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	mimeType    string
	subs        []TransitionFunc

	paused  atomic.Bool
	closing atomic.Bool

	bufMu sync.Mutex
	buf   bytes.Buffer
}

func NewCaptureEngine(device ports.DeviceCapture, cfg ports.DeviceConfig, chunkSize int, events ports.EventSink) *CaptureEngine {
	if chunkSize < 256 {
		chunkSize = 4096
	}
	return &CaptureEngine{
		device:    device,
		cfg:       cfg,
		chunkSize: chunkSize,
		events:    events,
		state:     domain.CaptureStateIdle,
	}
}

// OnTransition subscribes to state transitions. Callbacks run outside the
// engine lock, in transition order.
func (e *CaptureEngine) OnTransition(fn TransitionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *CaptureEngine) State() domain.CaptureState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start begins capturing. From paused it resumes the existing device
// handle without re-acquisition; from idle or stopped it acquires a fresh
// handle. A device acquisition failure leaves the engine idle and is
// returned as a *domain.CaptureError.
func (e *CaptureEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case domain.CaptureStatePaused:
		e.resumeLocked()
		e.mu.Unlock()
		e.notify(domain.CaptureStateCapturing, domain.ReasonRecordingResumed)
		return nil
	case domain.CaptureStateCapturing:
		e.mu.Unlock()
		return ErrBusy
	}
	e.mu.Unlock()

	handle, err := e.device.Acquire(ctx, e.cfg)
	if err != nil {
		var capErr *domain.CaptureError
		if !errors.As(err, &capErr) {
			err = &domain.CaptureError{Kind: domain.CaptureErrUnknown, Detail: err.Error()}
		}
		return err
	}

	e.mu.Lock()
	e.handle = handle
	e.state = domain.CaptureStateCapturing
	e.startedAt = time.Now()
	e.pausedTotal = 0
	e.mimeType = handle.MimeType()
	e.pumpDone = make(chan struct{})
	e.paused.Store(false)
	e.closing.Store(false)
	e.mu.Unlock()

	e.bufMu.Lock()
	e.buf.Reset()
	e.bufMu.Unlock()

	go e.pump(handle, e.pumpDone)

	e.notify(domain.CaptureStateCapturing, domain.ReasonRecordingStarted)
	return nil
}

// Pause suspends chunk accumulation and duration accrual. The device
// handle is retained so Resume does not re-prompt for permission.
func (e *CaptureEngine) Pause() error {
	e.mu.Lock()
	if e.state != domain.CaptureStateCapturing {
		e.mu.Unlock()
		return ErrNotCapturing
	}
	e.state = domain.CaptureStatePaused
	e.pausedAt = time.Now()
	e.paused.Store(true)
	e.mu.Unlock()

	e.notify(domain.CaptureStatePaused, domain.ReasonRecordingPaused)
	return nil
}

// Resume is the symmetric inverse of Pause.
func (e *CaptureEngine) Resume() error {
	e.mu.Lock()
	if e.state != domain.CaptureStatePaused {
		e.mu.Unlock()
		return ErrNotPaused
	}
	e.resumeLocked()
	e.mu.Unlock()

	e.notify(domain.CaptureStateCapturing, domain.ReasonRecordingResumed)
	return nil
}

func (e *CaptureEngine) resumeLocked() {
	e.pausedTotal += time.Since(e.pausedAt)
	e.state = domain.CaptureStateCapturing
	e.paused.Store(false)
}

// Stop finalizes the session: releases the device, drains the pump and
// returns the accumulated payload together with the capture duration
// (wall-clock since first start minus total paused time).
func (e *CaptureEngine) Stop() ([]byte, string, float64, error) {
	e.mu.Lock()
	if e.state != domain.CaptureStateCapturing && e.state != domain.CaptureStatePaused {
		e.mu.Unlock()
		return nil, "", 0, ErrNotCapturing
	}
	if e.state == domain.CaptureStatePaused {
		e.pausedTotal += time.Since(e.pausedAt)
	}
	duration := time.Since(e.startedAt) - e.pausedTotal
	handle := e.handle
	done := e.pumpDone
	mime := e.mimeType
	e.handle = nil
	e.state = domain.CaptureStateStopped
	e.closing.Store(true)
	e.mu.Unlock()

	if handle != nil {
		_ = handle.Release()
	}
	if done != nil {
		<-done
	}

	e.bufMu.Lock()
	payload := make([]byte, e.buf.Len())
	copy(payload, e.buf.Bytes())
	e.buf.Reset()
	e.bufMu.Unlock()

	e.notify(domain.CaptureStateStopped, domain.ReasonRecordingStopped)
	return payload, mime, duration.Seconds(), nil
}

// Reset releases any held device, clears the payload buffer and returns to
// idle. Used for both normal flow completion and error recovery.
func (e *CaptureEngine) Reset(reason domain.StateReason) {
	e.mu.Lock()
	handle := e.handle
	done := e.pumpDone
	e.handle = nil
	e.pumpDone = nil
	e.state = domain.CaptureStateIdle
	e.closing.Store(true)
	e.mu.Unlock()

	if handle != nil {
		_ = handle.Release()
	}
	if done != nil {
		<-done
	}

	e.bufMu.Lock()
	e.buf.Reset()
	e.bufMu.Unlock()

	e.notify(domain.CaptureStateIdle, reason)
}

// pump drains the device handle into the payload buffer. Chunks read while
// paused are discarded: the device produces no usable audio during a pause
// and paused intervals are excluded from the duration.
func (e *CaptureEngine) pump(handle ports.DeviceHandle, done chan struct{}) {
	defer close(done)

	chunk := make([]byte, e.chunkSize)
	for {
		n, err := handle.Read(chunk)
		if n > 0 && !e.paused.Load() {
			e.bufMu.Lock()
			e.buf.Write(chunk[:n])
			e.bufMu.Unlock()
		}
		if err != nil {
			if !e.closing.Load() && !errors.Is(err, io.EOF) {
				_ = handle.Release()
				e.events.SessionError(domain.ErrorCodeCapture, fmt.Sprintf("device read failed: %v", err))
			}
			return
		}
	}
}

func (e *CaptureEngine) notify(state domain.CaptureState, reason domain.StateReason) {
	e.mu.Lock()
	subs := make([]TransitionFunc, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, fn := range subs {
		fn(state, reason)
	}
}
