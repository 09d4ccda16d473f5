package zerolog

import (
	"fmt"

	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/rs/zerolog"
)

// Adapter exposes a zerolog logger through logger.Logger
type Adapter struct {
	zl zerolog.Logger
}

var _ logger.Logger = (*Adapter)(nil)

// NewAdapter wraps a zerolog logger
func NewAdapter(l zerolog.Logger) *Adapter {
	return &Adapter{zl: l}
}

// Nop returns a logger that discards everything
func Nop() *Adapter {
	return NewAdapter(zerolog.Nop())
}

func (a *Adapter) WithError(err error) logger.Logger {
	return NewAdapter(a.zl.With().Err(err).Logger())
}

func (a *Adapter) WithField(key string, value any) logger.Logger {
	return NewAdapter(a.zl.With().Interface(key, value).Logger())
}

func (a *Adapter) WithFields(fields map[string]any) logger.Logger {
	return NewAdapter(a.zl.With().Fields(fields).Logger())
}

func (a *Adapter) Debug(args ...any) { a.zl.Debug().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Info(args ...any)  { a.zl.Info().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Warn(args ...any)  { a.zl.Warn().Msg(fmt.Sprint(args...)) }
func (a *Adapter) Error(args ...any) { a.zl.Error().Msg(fmt.Sprint(args...)) }

func (a *Adapter) Debugf(format string, args ...any) { a.zl.Debug().Msgf(format, args...) }
func (a *Adapter) Infof(format string, args ...any)  { a.zl.Info().Msgf(format, args...) }
func (a *Adapter) Warnf(format string, args ...any)  { a.zl.Warn().Msgf(format, args...) }
func (a *Adapter) Errorf(format string, args ...any) { a.zl.Error().Msgf(format, args...) }
