package core

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// SeriesKind tags the role a series plays on the chart
type SeriesKind int8

const (
	SeriesPrimary SeriesKind = iota
	SeriesPrediction
	SeriesVolume
)

func (k SeriesKind) String() string {
	switch k {
	case SeriesPrimary:
		return "primary"
	case SeriesPrediction:
		return "prediction"
	case SeriesVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// Series is an ordered sequence of points with strictly increasing time
type Series struct {
	Kind   SeriesKind
	Points []TimePoint
}

// NewSeries wraps points that are already in canonical order
func NewSeries(kind SeriesKind, points []TimePoint) Series {
	return Series{Kind: kind, Points: points}
}

// Length returns the number of points in the series
func (s Series) Length() int { return len(s.Points) }

// IsEmpty reports whether the series has no points
func (s Series) IsEmpty() bool { return len(s.Points) == 0 }

// Last returns the point at a position counted from the end
// position 0 is the last point, 1 is the second-to-last, etc.
func (s Series) Last(position int) (TimePoint, bool) {
	i := len(s.Points) - 1 - position
	if i < 0 || i >= len(s.Points) {
		return TimePoint{}, false
	}
	return s.Points[i], true
}

// At returns the point stamped exactly at t
func (s Series) At(t int64) (TimePoint, bool) {
	i, found := slices.BinarySearchFunc(s.Points, t, func(p TimePoint, target int64) int {
		switch {
		case p.Time < target:
			return -1
		case p.Time > target:
			return 1
		default:
			return 0
		}
	})
	if !found {
		return TimePoint{}, false
	}
	return s.Points[i], true
}

// Prices returns Close (or Value) for every point
func (s Series) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price()
	}
	return prices
}

// Monotonic reports whether timestamps are strictly increasing
func (s Series) Monotonic() bool {
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Time <= s.Points[i-1].Time {
			return false
		}
	}
	return true
}

// NumDecPlaces counts the digits after the decimal point in the shortest
// representation of v
func NumDecPlaces(v float64) int {
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		return len(text) - dot - 1
	}
	return 0
}
