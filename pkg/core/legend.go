package core

import (
	"fmt"
	"strings"
)

// LegendSnapshot is the legend content for one hovered time.
// Nil fields are absent, the populated set depends on the chart kind.
type LegendSnapshot struct {
	Time            int64     `json:"time"`
	Kind            ChartKind `json:"kind"`
	Open            *float64  `json:"open,omitempty"`
	High            *float64  `json:"high,omitempty"`
	Low             *float64  `json:"low,omitempty"`
	Close           *float64  `json:"close,omitempty"`
	Value           *float64  `json:"value,omitempty"`
	Volume          *float64  `json:"volume,omitempty"`
	PredictionValue *float64  `json:"predictionValue,omitempty"`
}

// HasPrimary reports whether the primary series resolved at the hovered time
func (l LegendSnapshot) HasPrimary() bool {
	return l.Open != nil || l.Close != nil || l.Value != nil
}

// String renders the legend the way the chart overlay shows it
func (l LegendSnapshot) String() string {
	var b strings.Builder
	b.WriteString(FormatDate(l.Time))

	num := func(label string, v *float64) {
		if v == nil {
			return
		}
		fmt.Fprintf(&b, " %s:%.2f", label, *v)
	}

	num("O", l.Open)
	num("H", l.High)
	num("L", l.Low)
	num("C", l.Close)
	num("Price", l.Value)
	if l.Volume != nil && *l.Volume > 0 {
		fmt.Fprintf(&b, " Volume:%s", FormatVolume(*l.Volume))
	}
	num("Pred", l.PredictionValue)

	return b.String()
}

// FormatVolume abbreviates large volumes with K/M suffixes
func FormatVolume(volume float64) string {
	switch {
	case volume >= 1_000_000:
		return fmt.Sprintf("%.2fM", volume/1_000_000)
	case volume >= 1_000:
		return fmt.Sprintf("%.2fK", volume/1_000)
	default:
		return fmt.Sprintf("%.0f", volume)
	}
}
