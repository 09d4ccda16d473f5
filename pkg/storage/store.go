package storage

import (
	"errors"
	"strings"
	"time"

	"github.com/raykavin/pricechart/pkg/feed"
)

var (
	ErrNotFound = errors.New("symbol not found")
	ErrNoSymbol = errors.New("batch without symbol")
)

// Store keeps raw record batches keyed by symbol
type Store interface {
	Save(batch feed.Batch) error
	Batch(symbol string) (feed.Batch, error)
	Entries() ([]Entry, error)
	Symbols() ([]string, error)
	Delete(symbol string) error
	Close() error
}

// Entry is a stored raw batch
type Entry struct {
	Symbol    string     `json:"symbol"`
	UpdatedAt time.Time  `json:"updated_at"`
	Batch     feed.Batch `json:"batch"`
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func symbolsOf(entries []Entry) []string {
	symbols := make([]string, 0, len(entries))
	for _, entry := range entries {
		symbols = append(symbols, entry.Symbol)
	}
	return symbols
}
