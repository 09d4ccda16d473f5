package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const messageWidth = 64

// Options configures the process logger
type Options struct {
	Level      string
	TimeLayout string
	Colored    bool
	JSON       bool

	// File, when set, receives a JSON copy of every entry, rotated by size
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New builds a console logger, optionally teeing into a rotated file
func New(opts Options) (*Adapter, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stdout
	if !opts.JSON {
		cw := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			NoColor:    !opts.Colored,
			TimeFormat: opts.TimeLayout,
		}
		cw.FormatLevel = formatLevel
		cw.FormatMessage = formatMessage
		cw.FormatCaller = formatCaller
		cw.FormatTimestamp = func(i interface{}) string {
			return formatTimestamp(i, opts.TimeLayout)
		}
		console = cw
	}

	output := console
	if opts.File != "" {
		output = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    max(opts.MaxSizeMB, 1),
			MaxBackups: opts.MaxBackups,
			MaxAge:     14,
			Compress:   true,
		})
	}

	l := zerolog.New(output).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return NewAdapter(l), nil
}

func formatLevel(i interface{}) string {
	level, ok := i.(string)
	if !ok {
		return term.Whitef("[UNK]")
	}

	switch level {
	case zerolog.LevelTraceValue:
		return term.Cyanf("[TRC]")
	case zerolog.LevelDebugValue:
		return term.Cyanf("[DBG]")
	case zerolog.LevelInfoValue:
		return term.Greenf("[INF]")
	case zerolog.LevelWarnValue:
		return term.Yellowf("[WAR]")
	case zerolog.LevelFatalValue:
		return term.Redf("[FTL]")
	case zerolog.LevelErrorValue:
		return term.Redf("[ERR]")
	default:
		return term.Whitef("[UNK]")
	}
}

func formatMessage(i interface{}) string {
	msg, ok := i.(string)
	if !ok || msg == "" {
		return ">"
	}

	if len(msg) > messageWidth {
		msg = msg[:messageWidth]
	}

	return term.Whitef("> %-*s", messageWidth, msg)
}

func formatCaller(i interface{}) string {
	const fileWidth = 16

	name, ok := i.(string)
	if !ok || name == "" {
		return ""
	}

	file, line, found := strings.Cut(filepath.Base(name), ":")
	if !found {
		return term.Yellowf("[%s]", name)
	}

	if len(file) > fileWidth {
		file = file[:fileWidth]
	}

	return term.Yellowf("[%-*s:%4s]", fileWidth, file, line)
}

func formatTimestamp(i interface{}, layout string) string {
	raw, ok := i.(string)
	if !ok {
		return term.Cyanf("[%v]", i)
	}

	if ts, err := time.ParseInLocation(time.RFC3339, raw, time.Local); err == nil {
		raw = ts.In(time.Local).Format(layout)
	}

	return term.Cyanf("[%s]", raw)
}
