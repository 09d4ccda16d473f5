package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/pricechart/pkg/feed"
	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/tidwall/buntdb"
)

const (
	keyPrefix   = "batch:"
	updateIndex = "update_index"
)

// RecordStore keeps the raw batches of every symbol in BuntDB. Only raw
// input is stored, series are derived again on every render.
type RecordStore struct {
	db  *buntdb.DB
	log logger.Logger
	now func() time.Time
}

// FromMemory creates an in-memory store
func FromMemory(log logger.Logger) (*RecordStore, error) {
	return NewRecordStore(":memory:", log)
}

// FromFile creates a file-based store
func FromFile(file string, log logger.Logger) (*RecordStore, error) {
	return NewRecordStore(file, log)
}

// NewRecordStore opens a BuntDB store
func NewRecordStore(sourceFile string, log logger.Logger) (*RecordStore, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex(updateIndex, keyPrefix+"*", buntdb.IndexJSON("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &RecordStore{
		db:  db,
		log: log,
		now: time.Now,
	}, nil
}

func key(symbol string) string {
	return keyPrefix + normalizeSymbol(symbol)
}

// Save stores or replaces the batch of a symbol
func (s *RecordStore) Save(batch feed.Batch) error {
	if batch.Symbol == "" {
		return ErrNoSymbol
	}

	batch.Symbol = normalizeSymbol(batch.Symbol)
	entry := Entry{Symbol: batch.Symbol, UpdatedAt: s.now().UTC(), Batch: batch}

	return s.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal batch: %w", err)
		}

		_, _, err = tx.Set(key(batch.Symbol), string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}

		return nil
	})
}

// Batch returns the stored batch of a symbol
func (s *RecordStore) Batch(symbol string) (feed.Batch, error) {
	var entry Entry

	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key(symbol))
		if errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, normalizeSymbol(symbol))
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &entry)
	})
	if err != nil {
		return feed.Batch{}, err
	}

	return entry.Batch, nil
}

// Entries lists the stored batches, least recently updated first
func (s *RecordStore) Entries() ([]Entry, error) {
	entries := make([]Entry, 0)

	err := s.db.View(func(tx *buntdb.Tx) error {
		err := tx.Ascend(updateIndex, func(_, value string) bool {
			var entry Entry
			if err := json.Unmarshal([]byte(value), &entry); err != nil {
				s.log.WithError(err).Warn("failed to unmarshal stored batch")
				return true
			}

			entries = append(entries, entry)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over batches: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Symbols lists the stored symbols
func (s *RecordStore) Symbols() ([]string, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}

	return symbolsOf(entries), nil
}

// Delete removes the batch of a symbol
func (s *RecordStore) Delete(symbol string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(symbol))
		if errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, normalizeSymbol(symbol))
		}
		return err
	})
}

// Close closes the database connection
func (s *RecordStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
