package volume

import "github.com/raykavin/pricechart/pkg/core"

// Bar hues, the alpha suffix depends on the theme
const (
	upHue   = "#00C805"
	downHue = "#FF3B30"

	darkAlpha  = "55"
	lightAlpha = "44"
)

// Color resolves a tag to its alpha-blended hue for the theme
func Color(tag core.ColorTag, theme core.Theme) string {
	hue := upHue
	if tag == core.ColorDown {
		hue = downHue
	}

	switch theme {
	case core.Light:
		return hue + lightAlpha
	default:
		return hue + darkAlpha
	}
}

// Tags classifies each point against the previous one. The first bar has
// no predecessor and is always up; ties count as up.
func Tags(primary core.Series) []core.ColorTag {
	tags := make([]core.ColorTag, primary.Length())
	for i := 1; i < len(tags); i++ {
		if primary.Points[i].Price() < primary.Points[i-1].Price() {
			tags[i] = core.ColorDown
		}
	}
	return tags
}

// Volumes extracts the volume of every point, zero when absent
func Volumes(primary core.Series) []float64 {
	volumes := make([]float64, primary.Length())
	for i, p := range primary.Points {
		if p.Has(core.FieldVolume) {
			volumes[i] = p.Volume
		}
	}
	return volumes
}

// Colorize builds the histogram bars of the volume overlay
func Colorize(primary core.Series, volumes []float64, theme core.Theme) []core.VolumeBar {
	tags := Tags(primary)
	bars := make([]core.VolumeBar, len(tags))

	for i, p := range primary.Points {
		var value float64
		if i < len(volumes) {
			value = volumes[i]
		}

		bars[i] = core.VolumeBar{
			Time:  p.Time,
			Value: value,
			Tag:   tags[i],
			Color: Color(tags[i], theme),
		}
	}

	return bars
}
