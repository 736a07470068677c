package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type Option func(*options)

type options struct {
	out     io.Writer
	name    string
	level   Level
	noColor *bool
}

func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func WithLevel(level Level) Option {
	return func(o *options) {
		o.level = level
	}
}

func WithNoColor(noColor bool) Option {
	return func(o *options) {
		o.noColor = &noColor
	}
}

// New returns a tint-backed logger. Colors and the short timestamp are
// used only when the output is a terminal.
func New(opts ...Option) *slog.Logger {
	o := &options{
		out:   os.Stderr,
		level: LevelInfo,
	}
	for _, opt := range opts {
		opt(o)
	}

	isTerminal := false
	if f, ok := o.out.(*os.File); ok {
		isTerminal = isatty.IsTerminal(f.Fd())
	}
	timeFormat := time.RFC3339
	if isTerminal {
		timeFormat = time.Stamp
	}
	noColor := !isTerminal
	if o.noColor != nil {
		noColor = *o.noColor
	}

	l := slog.New(tint.NewHandler(o.out, &tint.Options{
		Level:      o.level,
		NoColor:    noColor,
		TimeFormat: timeFormat,
	}))
	if o.name != "" {
		l = l.With("logger", o.name)
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(WithOutput(io.Discard), WithLevel(LevelError+1))
}
