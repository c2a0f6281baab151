// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package log provides go-ethereum-style leveled, structured logging on
// top of log/slog: a package-level default logger reached through
// Trace/Debug/Info/Warn/Error/Crit, each taking a message and an
// alternating key-value context.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level mirrors slog.Level with geth-familiar names.
type Level = slog.Level

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = slog.Level(12)
)

// Logger is the interface every package in this module logs through.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	With(ctx ...any) Logger
}

type logger struct {
	inner *slog.Logger
}

// New wraps an *slog.Logger as a Logger.
func New(inner *slog.Logger) Logger { return &logger{inner: inner} }

func (l *logger) log(level Level, msg string, ctx []any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.log(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.log(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.log(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.log(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.log(LevelError, msg, ctx) }

// Crit logs at the critical level and then terminates the process; it
// is reserved for unrecoverable startup failures, matching the
// teacher's use of log.Crit in cmd/equa-beacon-engine/main.go.
func (l *logger) Crit(msg string, ctx ...any) {
	l.log(LevelCrit, msg, ctx)
	os.Exit(1)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

var root Logger = New(slog.New(NewTerminalHandler(os.Stderr, LevelInfo)))

// SetDefault installs l as the package-level logger used by the
// top-level Trace/Debug/Info/Warn/Error/Crit functions.
func SetDefault(l Logger) { root = l }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }
func With(ctx ...any) Logger       { return root.With(ctx...) }

// terminalHandler renders records as "LVL[time] msg k=v k=v", colorized
// when writing to a real terminal.
type terminalHandler struct {
	w       io.Writer
	color   bool
	level   Level
	attrs   []slog.Attr
	groups  []string
}

// NewTerminalHandler builds an slog.Handler that mimics go-ethereum's
// glog-style terminal output, using go-colorable so ANSI codes render
// correctly on Windows consoles and go-isatty to detect a real TTY.
func NewTerminalHandler(w io.Writer, minLevel Level) slog.Handler {
	out := w
	isTerm := false
	if f, ok := w.(*os.File); ok {
		isTerm = isatty.IsTerminal(f.Fd())
		out = colorable.NewColorable(f)
	}
	return &terminalHandler{w: out, color: isTerm, level: minLevel}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	lvl, color := levelString(r.Level)
	ts := r.Time.Format("01-02|15:04:05.000")
	line := fmt.Sprintf("%s[%s] %s", lvl, ts, r.Message)
	if h.color {
		line = "\x1b[" + color + "m" + line + "\x1b[0m"
	}
	for _, a := range h.attrs {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}

func levelString(l slog.Level) (string, string) {
	switch {
	case l >= LevelCrit:
		return "CRIT ", "35" // magenta
	case l >= LevelError:
		return "ERROR", "31" // red
	case l >= LevelWarn:
		return "WARN ", "33" // yellow
	case l >= LevelInfo:
		return "INFO ", "32" // green
	case l >= LevelDebug:
		return "DEBUG", "36" // cyan
	default:
		return "TRACE", "90" // gray
	}
}

// NewJSONHandler is used for production log shipping, where the glog
// terminal format isn't machine-parseable.
func NewJSONHandler(w io.Writer, minLevel Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: minLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	})
}
