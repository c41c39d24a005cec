package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"evervoice/internal/domain"
	"evervoice/internal/ports"
)

type fakeEventSink struct {
	mu sync.Mutex

	states         []stateEvent
	ticks          []tickEvent
	transcriptions []domain.TranscriptionOutcome
	summaries      []domain.SummaryOutcome
	historyChanges int
	errors         []errEvent
}

type stateEvent struct {
	state  domain.CaptureState
	reason domain.StateReason
}

type tickEvent struct {
	elapsed   int
	remaining int
	warning   bool
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

func (f *fakeEventSink) CaptureStateChanged(state domain.CaptureState, reason domain.StateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) DurationTick(elapsed, remaining int, warning bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks = append(f.ticks, tickEvent{elapsed: elapsed, remaining: remaining, warning: warning})
}

func (f *fakeEventSink) TranscriptionUpdated(outcome domain.TranscriptionOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcriptions = append(f.transcriptions, outcome)
}

func (f *fakeEventSink) SummaryUpdated(outcome domain.SummaryOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, outcome)
}

func (f *fakeEventSink) HistoryChanged() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyChanges++
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotTicks() []tickEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tickEvent, len(f.ticks))
	copy(out, f.ticks)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) historyChangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyChanges
}

func (f *fakeEventSink) lastReason() domain.StateReason {
	states := f.snapshotStates()
	if len(states) == 0 {
		return ""
	}
	return states[len(states)-1].reason
}

func (f *fakeEventSink) sawReason(reason domain.StateReason) bool {
	for _, s := range f.snapshotStates() {
		if s.reason == reason {
			return true
		}
	}
	return false
}

// fakeHandle delivers chunks pushed through feed and returns io.EOF once
// released, matching how a real recorder process winds down.
type fakeHandle struct {
	feed     chan []byte
	released chan struct{}
	once     sync.Once
	mime     string

	mu           sync.Mutex
	releaseCalls int
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		feed:     make(chan []byte, 16),
		released: make(chan struct{}),
		mime:     "audio/wav",
	}
}

func (f *fakeHandle) Read(p []byte) (int, error) {
	select {
	case chunk := <-f.feed:
		return copy(p, chunk), nil
	case <-f.released:
		// Drain anything fed before release.
		select {
		case chunk := <-f.feed:
			return copy(p, chunk), nil
		default:
			return 0, io.EOF
		}
	}
}

func (f *fakeHandle) Close() error { return f.Release() }

func (f *fakeHandle) Release() error {
	f.mu.Lock()
	f.releaseCalls++
	f.mu.Unlock()
	f.once.Do(func() { close(f.released) })
	return nil
}

func (f *fakeHandle) MimeType() string { return f.mime }

func (f *fakeHandle) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseCalls
}

type fakeDevice struct {
	mu      sync.Mutex
	handles []*fakeHandle
	err     error
	calls   int
}

func (f *fakeDevice) Acquire(_ context.Context, _ ports.DeviceConfig) (ports.DeviceHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.handles) {
		return nil, errors.New("no device handle configured")
	}
	handle := f.handles[f.calls]
	f.calls++
	return handle, nil
}

type fakeTranscriber struct {
	mu      sync.Mutex
	results []domain.TranscriptionResult
	calls   int
	lastLoc string

	// block, when set, holds Transcribe until released. started is
	// signalled once per call so tests can sequence around the block.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeTranscriber) Transcribe(_ context.Context, locator string) domain.TranscriptionResult {
	f.mu.Lock()
	f.lastLoc = locator
	idx := f.calls
	f.calls++
	started := f.started
	block := f.block
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if idx >= len(f.results) {
		return domain.TranscriptionResult{
			Success:      false,
			ErrorKind:    domain.TranscriptionErrUnknown,
			ErrorMessage: "no result configured",
		}
	}
	return f.results[idx]
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSummarizer struct {
	mu       sync.Mutex
	markdown string
	err      error
	calls    int
	lastText string
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastText = text
	if f.err != nil {
		return "", f.err
	}
	return f.markdown, nil
}

type fakeHistory struct {
	mu          sync.Mutex
	entries     []domain.HistoryEntry
	nextID      int
	createErr   error
	attachErr   error
	attachCalls []attachCall
}

type attachCall struct {
	id       string
	markdown string
}

func (f *fakeHistory) Create(locator string, durationSeconds float64, transcription string) (domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.HistoryEntry{}, f.createErr
	}
	f.nextID++
	entry := domain.HistoryEntry{
		ID:              "entry-" + string(rune('0'+f.nextID)),
		Locator:         locator,
		DurationSeconds: durationSeconds,
		Transcription:   transcription,
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeHistory) AttachSummary(id string, markdown string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachCalls = append(f.attachCalls, attachCall{id: id, markdown: markdown})
	if f.attachErr != nil {
		return f.attachErr
	}
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].Summary = markdown
		}
	}
	return nil
}

func (f *fakeHistory) List() ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.HistoryEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeHistory) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return errors.New("entry not found")
}

func (f *fakeHistory) attachedTo() []attachCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]attachCall, len(f.attachCalls))
	copy(out, f.attachCalls)
	return out
}

type fakeRecordingStore struct {
	mu      sync.Mutex
	locator string
	saveErr error
	saved   [][]byte
	deleted []string
}

func (f *fakeRecordingStore) EnsureReady() (string, error) { return "/tmp", nil }

func (f *fakeRecordingStore) Save(data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	f.saved = append(f.saved, copied)
	if f.locator == "" {
		return "recording-1.wav", nil
	}
	return f.locator, nil
}

func (f *fakeRecordingStore) Delete(locator string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, locator)
	return nil
}

func (f *fakeRecordingStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}
