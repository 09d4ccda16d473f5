package render

import (
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// parseColor understands #RGB, #RRGGBB, #RRGGBBAA and rgba(r, g, b, a)
func parseColor(value string) drawing.Color {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "rgba(") || strings.HasPrefix(value, "rgb(") {
		return parseRGBA(value)
	}

	hex := strings.TrimPrefix(value, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return drawing.ColorTransparent
	}

	channel := func(i int) uint8 {
		v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		if err != nil {
			return 0
		}
		return uint8(v)
	}

	c := drawing.Color{R: channel(0), G: channel(2), B: channel(4), A: 255}
	if len(hex) == 8 {
		c.A = channel(6)
	}
	return c
}

func parseRGBA(value string) drawing.Color {
	start := strings.IndexByte(value, '(')
	end := strings.LastIndexByte(value, ')')
	if start < 0 || end <= start {
		return drawing.ColorTransparent
	}

	parts := strings.Split(value[start+1:end], ",")
	if len(parts) < 3 {
		return drawing.ColorTransparent
	}

	num := func(s string) float64 {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		return f
	}

	c := drawing.Color{
		R: uint8(num(parts[0])),
		G: uint8(num(parts[1])),
		B: uint8(num(parts[2])),
		A: 255,
	}
	if len(parts) == 4 {
		c.A = uint8(num(parts[3]) * 255)
	}
	return c
}
