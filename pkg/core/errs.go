package core

import "errors"

var (
	ErrConstruction     = errors.New("chart construction failed")
	ErrInvalidConfig    = errors.New("invalid chart configuration")
	ErrUnknownChartKind = errors.New("unknown chart kind")
	ErrUnknownTheme     = errors.New("unknown theme")
	ErrUnknownTimeRange = errors.New("unknown time range")
	ErrInvalidDate      = errors.New("invalid date")
	ErrSurfaceRemoved   = errors.New("surface already removed")
	ErrEmptySeries      = errors.New("empty series")
)
