package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/pricechart/pkg/feed"
	"gorm.io/gorm"
)

// batchRow is the table layout of a stored batch
type batchRow struct {
	Symbol    string    `gorm:"primaryKey;size:32"`
	UpdatedAt time.Time `gorm:"index"`
	Payload   []byte
}

func (batchRow) TableName() string { return "batches" }

// SQLStore implements Store on a SQL database via GORM
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// FromSQL creates a new SQL store
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStore, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&batchRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: db, now: time.Now}, nil
}

// Save stores or replaces the batch of a symbol
func (s *SQLStore) Save(batch feed.Batch) error {
	if batch.Symbol == "" {
		return ErrNoSymbol
	}
	batch.Symbol = normalizeSymbol(batch.Symbol)

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	row := batchRow{Symbol: batch.Symbol, UpdatedAt: s.now().UTC(), Payload: payload}
	if result := s.db.Save(&row); result.Error != nil {
		return fmt.Errorf("failed to store batch: %w", result.Error)
	}

	return nil
}

// Batch returns the stored batch of a symbol
func (s *SQLStore) Batch(symbol string) (feed.Batch, error) {
	var row batchRow

	result := s.db.First(&row, "symbol = ?", normalizeSymbol(symbol))
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return feed.Batch{}, fmt.Errorf("%w: %s", ErrNotFound, normalizeSymbol(symbol))
	}
	if result.Error != nil {
		return feed.Batch{}, fmt.Errorf("failed to load batch: %w", result.Error)
	}

	entry, err := row.entry()
	if err != nil {
		return feed.Batch{}, err
	}
	return entry.Batch, nil
}

// Entries lists the stored batches, least recently updated first
func (s *SQLStore) Entries() ([]Entry, error) {
	var rows []batchRow

	if result := s.db.Order("updated_at asc, symbol asc").Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("failed to list batches: %w", result.Error)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Symbols lists the stored symbols
func (s *SQLStore) Symbols() ([]string, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	return symbolsOf(entries), nil
}

// Delete removes the batch of a symbol
func (s *SQLStore) Delete(symbol string) error {
	result := s.db.Delete(&batchRow{}, "symbol = ?", normalizeSymbol(symbol))
	if result.Error != nil {
		return fmt.Errorf("failed to delete batch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, normalizeSymbol(symbol))
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r batchRow) entry() (Entry, error) {
	var batch feed.Batch
	if err := json.Unmarshal(r.Payload, &batch); err != nil {
		return Entry{}, fmt.Errorf("failed to unmarshal batch %s: %w", r.Symbol, err)
	}
	return Entry{Symbol: r.Symbol, UpdatedAt: r.UpdatedAt, Batch: batch}, nil
}
