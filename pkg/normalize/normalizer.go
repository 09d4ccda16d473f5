package normalize

import (
	"math"
	"sort"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/samber/lo"
)

// Stats describes what a normalize pass filtered out
type Stats struct {
	Input       int
	Malformed   int
	Duplicates  int
	Output      int
	Revalidated bool
}

// Normalizer turns raw batches into canonical series
type Normalizer struct {
	log logger.Logger
}

// New creates a normalizer that reports dropped records at debug level
func New(log logger.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize filters points missing a finite value for any required field,
// keeps the first point seen for each timestamp and sorts by time.
func Normalize(kind core.SeriesKind, points []core.TimePoint, required core.Field) core.Series {
	series, _ := normalize(kind, points, required)
	return series
}

func normalize(kind core.SeriesKind, points []core.TimePoint, required core.Field) (core.Series, Stats) {
	stats := Stats{Input: len(points)}

	valid := lo.Filter(points, func(p core.TimePoint, _ int) bool {
		return p.Finite(required)
	})
	stats.Malformed = len(points) - len(valid)

	out := dedupAndSort(valid)
	stats.Duplicates = len(valid) - len(out)

	series := core.NewSeries(kind, out)

	// Safety net, the first pass already guarantees strict order
	if !series.Monotonic() {
		stats.Revalidated = true
		before := len(out)
		series = core.NewSeries(kind, dedupAndSort(out))
		stats.Duplicates += before - len(series.Points)
	}

	stats.Output = len(series.Points)
	return series, stats
}

func dedupAndSort(points []core.TimePoint) []core.TimePoint {
	unique := lo.UniqBy(points, func(p core.TimePoint) int64 {
		return p.Time
	})

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Time < unique[j].Time
	})

	return unique
}

// Series normalizes points and logs the pass statistics
func (n *Normalizer) Series(kind core.SeriesKind, points []core.TimePoint, required core.Field) (core.Series, Stats) {
	series, stats := normalize(kind, points, required)

	if stats.Malformed > 0 || stats.Duplicates > 0 {
		n.log.WithFields(map[string]any{
			"series":     kind.String(),
			"input":      stats.Input,
			"malformed":  stats.Malformed,
			"duplicates": stats.Duplicates,
			"output":     stats.Output,
		}).Debug("normalized series")
	}

	if stats.Revalidated {
		n.log.WithField("series", kind.String()).Warn("series required a second dedup pass")
	}

	return series, stats
}

// Primary converts and normalizes the primary batch for the given chart kind
func (n *Normalizer) Primary(records []core.RawRecord, kind core.ChartKind) (core.Series, Stats) {
	points, badDates := PrimaryPoints(records, kind)
	series, stats := n.Series(core.SeriesPrimary, points, kind.RequiredFields())
	stats.Input += badDates
	stats.Malformed += badDates
	return series, stats
}

// Prediction converts and normalizes the prediction batch
func (n *Normalizer) Prediction(records []core.PredictionRecord) (core.Series, Stats) {
	points, badDates := PredictionPoints(records)
	series, stats := n.Series(core.SeriesPrediction, points, core.FieldValue)
	stats.Input += badDates
	stats.Malformed += badDates
	return series, stats
}

// PrimaryPoints maps raw records onto points; candlestick keeps OHLC,
// line and area plot the close as value. Records with an unparseable
// date are dropped and counted.
func PrimaryPoints(records []core.RawRecord, kind core.ChartKind) ([]core.TimePoint, int) {
	points := make([]core.TimePoint, 0, len(records))
	dropped := 0

	for _, r := range records {
		t, err := core.ParseDate(r.Date)
		if err != nil {
			dropped++
			continue
		}

		var p core.TimePoint
		switch kind {
		case core.Candlestick:
			p = core.NewCandlePoint(t, float64(r.Open), float64(r.High), float64(r.Low), float64(r.Close))
		case core.Line, core.Area:
			p = core.NewValuePoint(t, float64(r.Close))
		}

		if r.HasVolume() {
			p = p.WithVolume(finiteOrZero(float64(*r.Volume)))
		}

		points = append(points, p)
	}

	return points, dropped
}

// PredictionPoints maps prediction records onto value points
func PredictionPoints(records []core.PredictionRecord) ([]core.TimePoint, int) {
	points := make([]core.TimePoint, 0, len(records))
	dropped := 0

	for _, r := range records {
		t, err := core.ParseDate(r.Date)
		if err != nil {
			dropped++
			continue
		}
		points = append(points, core.NewValuePoint(t, float64(r.Value)))
	}

	return points, dropped
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
