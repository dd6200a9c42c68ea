// Package elog defines the logging collaborator every component in this
// module accepts rather than imports concretely. Window/event acquisition,
// shader compilation, and the other named-interface collaborators follow
// the same shape: a small interface here, a concrete adapter elsewhere.
package elog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured-logging collaborator accepted by every
// component that can fail non-fatally (ring-buffer soft overflow, graph
// eviction, docking collapse) and by Device/SimpleRenderer for lifecycle
// events (swapchain recreation, DeviceLost).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// zerologAdapter is the default Logger, backed by zerolog's console writer.
type zerologAdapter struct {
	log zerolog.Logger
}

// NewZerolog builds the default Logger, writing human-readable lines to w.
func NewZerolog(w io.Writer) Logger {
	return &zerologAdapter{log: zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()}
}

// Default returns a Logger writing to stderr, suitable when the caller has
// no opinion about destination.
func Default() Logger {
	return NewZerolog(os.Stderr)
}

func fields(e *zerolog.Event, args ...any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	return e
}

func (z *zerologAdapter) Debug(msg string, args ...any) { fields(z.log.Debug(), args...).Msg(msg) }
func (z *zerologAdapter) Info(msg string, args ...any)  { fields(z.log.Info(), args...).Msg(msg) }
func (z *zerologAdapter) Warn(msg string, args ...any)  { fields(z.log.Warn(), args...).Msg(msg) }
func (z *zerologAdapter) Error(msg string, args ...any) { fields(z.log.Error(), args...).Msg(msg) }

// Nop is a Logger that discards everything, useful in tests.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
