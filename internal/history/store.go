package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"evervoice/internal/domain"
)

const (
	keyPrefix  = "history:"
	maxEntries = 100
)

var ErrNotFound = errors.New("history entry not found")

// Store persists session history in a badger database, one JSON value per
// entry. The collection is capped at 100 entries; creating past the cap
// evicts the oldest entries and their audio files.
type Store struct {
	db          *badger.DB
	log         *slog.Logger
	removeAudio func(locator string) error
}

// Open opens (or creates) the history database at path.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return db, nil
}

// OpenInMemory opens a throwaway database, used by tests.
func OpenInMemory() (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory history db: %w", err)
	}
	return db, nil
}

// NewStore wraps an open database. removeAudio, when non-nil, is invoked
// with the locator of every entry removed by Delete or cap eviction.
func NewStore(db *badger.DB, removeAudio func(locator string) error, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log, removeAudio: removeAudio}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create appends a new entry and enforces the collection cap.
func (s *Store) Create(locator string, durationSeconds float64, transcription string) (domain.HistoryEntry, error) {
	entry := domain.HistoryEntry{
		ID:              uuid.NewString(),
		Locator:         locator,
		DurationSeconds: durationSeconds,
		Transcription:   transcription,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := s.put(entry); err != nil {
		return domain.HistoryEntry{}, err
	}
	s.enforceCap()
	return entry, nil
}

// AttachSummary adds a summary to an existing entry, the single mutation
// an entry permits after creation.
func (s *Store) AttachSummary(id string, markdown string) error {
	entry, err := s.get(id)
	if err != nil {
		return err
	}
	entry.Summary = markdown
	return s.put(entry)
}

// List returns all entries, newest first.
func (s *Store) List() ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry domain.HistoryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode history entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt > entries[j].CreatedAt
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// Delete removes an entry and its audio file.
func (s *Store) Delete(id string) error {
	entry, err := s.get(id)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}

	s.deleteAudio(entry.Locator)
	return nil
}

func (s *Store) put(entry domain.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+entry.ID), payload)
	})
	if err != nil {
		return fmt.Errorf("store history entry: %w", err)
	}
	return nil
}

func (s *Store) get(id string) (domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.HistoryEntry{}, ErrNotFound
		}
		return domain.HistoryEntry{}, fmt.Errorf("load history entry: %w", err)
	}
	return entry, nil
}

// enforceCap trims the oldest entries beyond the limit. Failures are
// logged, not surfaced: the new entry is already safely stored.
func (s *Store) enforceCap() {
	entries, err := s.List()
	if err != nil {
		s.log.Error("list history for cap enforcement", "error", err)
		return
	}
	if len(entries) <= maxEntries {
		return
	}

	for _, entry := range entries[maxEntries:] {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(keyPrefix + entry.ID))
		})
		if err != nil {
			s.log.Error("evict history entry", "id", entry.ID, "error", err)
			continue
		}
		s.deleteAudio(entry.Locator)
	}
}

func (s *Store) deleteAudio(locator string) {
	if s.removeAudio == nil || locator == "" {
		return
	}
	if err := s.removeAudio(locator); err != nil {
		s.log.Warn("remove recording for history entry", "locator", locator, "error", err)
	}
}
