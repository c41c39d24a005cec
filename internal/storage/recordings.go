package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrOutsideRoot = errors.New("locator points outside the recordings directory")

// RecordingStore keeps captured audio payloads as files under a single
// recordings directory. Locators handed out are absolute paths inside
// that directory; Delete refuses anything else.
type RecordingStore struct {
	root string
}

// DefaultRoot resolves the per-user recordings directory.
func DefaultRoot() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "evervoice", "recordings"), nil
}

func NewRecordingStore(root string) *RecordingStore {
	return &RecordingStore{root: root}
}

// EnsureReady creates the recordings directory if needed and returns it.
func (s *RecordingStore) EnsureReady() (string, error) {
	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}
	return s.root, nil
}

// Save writes the payload to a fresh file and returns its locator. File
// names carry a timestamp and a UUID so concurrent saves can never
// collide.
func (s *RecordingStore) Save(data []byte, mimeType string) (string, error) {
	if _, err := s.EnsureReady(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("recording-%d-%s%s", time.Now().Unix(), uuid.NewString(), extensionFor(mimeType))
	path := filepath.Join(s.root, name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	return path, nil
}

// Delete removes a previously saved recording.
func (s *RecordingStore) Delete(locator string) error {
	if !s.owns(locator) {
		return ErrOutsideRoot
	}
	if err := os.Remove(locator); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete recording: %w", err)
	}
	return nil
}

// CleanupOlderThan removes recordings whose modification time predates the
// cutoff and reports how many were removed. Used to reclaim space from
// sessions whose history entries are long gone.
func (s *RecordingStore) CleanupOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read recordings dir: %w", err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "recording-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *RecordingStore) owns(locator string) bool {
	dir := filepath.Dir(filepath.Clean(locator))
	return dir == filepath.Clean(s.root)
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	case strings.Contains(mimeType, "mp4"):
		return ".mp4"
	default:
		return ".bin"
	}
}
