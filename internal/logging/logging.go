// Package logging configures the global slog logger for clipmon.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Options are the logging settings every clipmon command accepts.
type Options struct {
	Format Format
	// Level is a slog level name. Empty means debug when interactive and
	// info otherwise.
	Level string
	// Interactive is --no-background: treat the output as a terminal even
	// when it is not one.
	Interactive bool
}

// New returns a logger writing to w. Interactive output (a terminal, or
// Options.Interactive) gets colourised tinter lines unless JSON is asked
// for; everything else is JSON unless text is asked for.
func New(w io.Writer, o Options) *slog.Logger {
	interactive := o.Interactive || IsTTY(w)

	level := slog.LevelInfo
	switch {
	case o.Level != "":
		level = ParseLevel(o.Level)
	case interactive:
		level = slog.LevelDebug
	}

	if o.Format == FormatText || (o.Format == FormatAuto && interactive) {
		return slog.New(tinter.NewHandler(w, &tinter.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs a stderr logger built from o as the slog default and
// returns it.
func Setup(o Options) *slog.Logger {
	log := New(os.Stderr, o)
	slog.SetDefault(log)
	return log
}
