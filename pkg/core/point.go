package core

import (
	"encoding/json"
	"math"
	"time"
)

// Field flags which optional numeric values a TimePoint carries
type Field uint8

const (
	FieldOpen Field = 1 << iota
	FieldHigh
	FieldLow
	FieldClose
	FieldValue
	FieldVolume
)

// FieldsOHLC is the field set of a candlestick point
const FieldsOHLC = FieldOpen | FieldHigh | FieldLow | FieldClose

// TimePoint is a single daily sample of a series
type TimePoint struct {
	Time   int64 // epoch seconds, start of the UTC day
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Value  float64
	Volume float64
	Fields Field
}

// NewCandlePoint creates an OHLC point
func NewCandlePoint(t int64, open, high, low, closing float64) TimePoint {
	return TimePoint{
		Time:   t,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closing,
		Fields: FieldsOHLC,
	}
}

// NewValuePoint creates a single-value point
func NewValuePoint(t int64, value float64) TimePoint {
	return TimePoint{Time: t, Value: value, Fields: FieldValue}
}

// WithVolume returns a copy of the point carrying the given volume
func (p TimePoint) WithVolume(volume float64) TimePoint {
	p.Volume = volume
	p.Fields |= FieldVolume
	return p
}

// Has reports whether every field in f is present
func (p TimePoint) Has(f Field) bool { return p.Fields&f == f }

// GetTime returns the point timestamp in UTC
func (p TimePoint) GetTime() time.Time { return time.Unix(p.Time, 0).UTC() }

// Price returns the close when present, otherwise the value
func (p TimePoint) Price() float64 {
	if p.Has(FieldClose) {
		return p.Close
	}
	return p.Value
}

// Finite reports whether every field in f is present and holds a finite number
func (p TimePoint) Finite(f Field) bool {
	if !p.Has(f) {
		return false
	}

	checks := []struct {
		flag  Field
		value float64
	}{
		{FieldOpen, p.Open},
		{FieldHigh, p.High},
		{FieldLow, p.Low},
		{FieldClose, p.Close},
		{FieldValue, p.Value},
		{FieldVolume, p.Volume},
	}

	for _, c := range checks {
		if f&c.flag == 0 {
			continue
		}
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return false
		}
	}

	return true
}

// pointJSON mirrors the data item shape charting libraries expect
type pointJSON struct {
	Time   int64    `json:"time"`
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Close  *float64 `json:"close,omitempty"`
	Value  *float64 `json:"value,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// MarshalJSON emits only the fields the point carries
func (p TimePoint) MarshalJSON() ([]byte, error) {
	out := pointJSON{Time: p.Time}
	pick := func(f Field, v float64) *float64 {
		if !p.Has(f) {
			return nil
		}
		return &v
	}

	out.Open = pick(FieldOpen, p.Open)
	out.High = pick(FieldHigh, p.High)
	out.Low = pick(FieldLow, p.Low)
	out.Close = pick(FieldClose, p.Close)
	out.Value = pick(FieldValue, p.Value)
	out.Volume = pick(FieldVolume, p.Volume)

	return json.Marshal(out)
}

// UnmarshalJSON restores the field flags from the keys present
func (p *TimePoint) UnmarshalJSON(data []byte) error {
	var in pointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*p = TimePoint{Time: in.Time}
	take := func(f Field, src *float64, dst *float64) {
		if src == nil {
			return
		}
		*dst = *src
		p.Fields |= f
	}

	take(FieldOpen, in.Open, &p.Open)
	take(FieldHigh, in.High, &p.High)
	take(FieldLow, in.Low, &p.Low)
	take(FieldClose, in.Close, &p.Close)
	take(FieldValue, in.Value, &p.Value)
	take(FieldVolume, in.Volume, &p.Volume)

	return nil
}
