package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/samber/lo"
)

var (
	ErrFormat      = errors.New("unsupported feed format")
	ErrNoPrimary   = errors.New("no primary records")
	jsonExtensions = []string{".json"}
	csvExtensions  = []string{".csv", ".txt"}
)

// Source points at the files of one symbol
type Source struct {
	Symbol     string
	Primary    string
	Prediction string
}

// Batch is the raw input of one symbol, exactly as read
type Batch struct {
	Symbol     string                  `json:"symbol"`
	Primary    []core.RawRecord        `json:"primary"`
	Prediction []core.PredictionRecord `json:"prediction,omitempty"`
	Trend      string                  `json:"trend,omitempty"`
}

// PredictionResponse is the envelope produced by the forecasting collaborator
type PredictionResponse struct {
	Symbol     string                  `json:"symbol"`
	Actual     []core.PredictionRecord `json:"actual"`
	Prediction []core.PredictionRecord `json:"prediction"`
	Trend      string                  `json:"trend"`
}

// Load reads the primary file and, if set, the prediction file of a source
func Load(source Source) (Batch, error) {
	batch := Batch{Symbol: strings.ToUpper(source.Symbol)}

	primary, err := readFile(source.Primary, ReadPrimaryJSON, ReadPrimaryCSV)
	if err != nil {
		return Batch{}, fmt.Errorf("load %s primary: %w", batch.Symbol, err)
	}
	batch.Primary = primary

	if source.Prediction != "" {
		response, err := readFile(source.Prediction, ReadPredictionJSON, func(r io.Reader) (PredictionResponse, error) {
			records, err := ReadPredictionCSV(r)
			return PredictionResponse{Prediction: records}, err
		})
		if err != nil {
			return Batch{}, fmt.Errorf("load %s prediction: %w", batch.Symbol, err)
		}
		batch.Prediction = response.Prediction
		batch.Trend = response.Trend
	}

	return batch, nil
}

func readFile[T any](path string, fromJSON, fromCSV func(io.Reader) (T, error)) (T, error) {
	var zero T

	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case lo.Contains(jsonExtensions, ext):
		return fromJSON(file)
	case lo.Contains(csvExtensions, ext):
		return fromCSV(file)
	default:
		return zero, fmt.Errorf("%w: %q", ErrFormat, ext)
	}
}

// ReadPrimaryJSON decodes an array of daily records
func ReadPrimaryJSON(r io.Reader) ([]core.RawRecord, error) {
	var records []core.RawRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode primary records: %w", err)
	}
	return records, nil
}

// ReadPredictionJSON accepts a bare array of {date, value} records or the
// forecasting envelope with its actual, prediction and trend fields
func ReadPredictionJSON(r io.Reader) (PredictionResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return PredictionResponse{}, err
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []core.PredictionRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return PredictionResponse{}, fmt.Errorf("decode prediction records: %w", err)
		}
		return PredictionResponse{Prediction: records}, nil
	}

	var response PredictionResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return PredictionResponse{}, fmt.Errorf("decode prediction response: %w", err)
	}
	return response, nil
}

// Limit keeps the records dated after the latest record minus the window.
// Records with unparseable dates are kept, the normalizer accounts for them.
func Limit(records []core.RawRecord, window time.Duration) []core.RawRecord {
	latest, ok := latestDate(records)
	if !ok || window <= 0 {
		return records
	}

	start := latest - int64(window/time.Second)
	return lo.Filter(records, func(record core.RawRecord, _ int) bool {
		t, err := core.ParseDate(record.Date)
		return err != nil || t > start
	})
}

// Window trims a batch to the time range, predictions are never trimmed
func Window(batch Batch, timeRange core.TimeRange) Batch {
	batch.Primary = Limit(batch.Primary, timeRange.Window())
	return batch
}

func latestDate(records []core.RawRecord) (int64, bool) {
	times := lo.FilterMap(records, func(record core.RawRecord, _ int) (int64, bool) {
		t, err := core.ParseDate(record.Date)
		return t, err == nil
	})
	if len(times) == 0 {
		return 0, false
	}
	return lo.Max(times), true
}
