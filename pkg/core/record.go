package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Number is a lenient JSON number: numeric strings are accepted and
// anything unparseable (null, "", "n/a") decodes to NaN
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number(math.NaN())
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			*n = Number(math.NaN())
			return nil
		}
		raw = unquoted
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*n = Number(math.NaN())
		return nil
	}

	*n = Number(value)
	return nil
}

// MarshalJSON encodes non-finite values as null
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// RawRecord is one daily OHLCV record as delivered by the retrieval collaborator
type RawRecord struct {
	Date   string  `json:"date"`
	Open   Number  `json:"open"`
	High   Number  `json:"high"`
	Low    Number  `json:"low"`
	Close  Number  `json:"close"`
	Volume *Number `json:"volume,omitempty"`
}

// HasVolume reports whether the record carries a volume field
func (r RawRecord) HasVolume() bool { return r.Volume != nil }

// UnmarshalJSON treats missing price fields as malformed
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	type plain RawRecord
	nan := Number(math.NaN())

	record := plain{Open: nan, High: nan, Low: nan, Close: nan}
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}

	*r = RawRecord(record)
	return nil
}

// PredictionRecord is one predicted daily value
type PredictionRecord struct {
	Date  string `json:"date"`
	Value Number `json:"value"`
}

// UnmarshalJSON treats a missing value as malformed
func (r *PredictionRecord) UnmarshalJSON(data []byte) error {
	type plain PredictionRecord

	record := plain{Value: Number(math.NaN())}
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}

	*r = PredictionRecord(record)
	return nil
}

// ParseDate parses a daily date or a full timestamp and truncates it to the UTC day
func ParseDate(value string) (int64, error) {
	value = strings.TrimSpace(value)

	layouts := []string{
		DateLayout,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix(), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// FormatDate renders an epoch-seconds day as YYYY-MM-DD
func FormatDate(t int64) string {
	return time.Unix(t, 0).UTC().Format(DateLayout)
}
