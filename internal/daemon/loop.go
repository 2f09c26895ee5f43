// Package daemon runs the event loop that feeds intercepted key events to
// the tap/chord detector.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"dualkey/internal/input"
)

// ErrSourceClosed is returned by Run when the key source ends on its own.
var ErrSourceClosed = errors.New("key event source closed")

// Handler consumes key events in arrival order.
type Handler interface {
	HandleEvent(ev input.KeyEvent)
	Reset()
}

// Options configures a Loop.
type Options struct {
	Source  input.KeySource
	Handler Handler
	Logger  zerolog.Logger
}

// Loop owns the handler. Every other goroutine talks to it through
// Reconfigure and SetPaused, so the handler only ever runs on the loop.
type Loop struct {
	source  input.KeySource
	handler Handler
	log     zerolog.Logger

	swap  chan Handler
	pause chan bool
	done  chan struct{}

	paused    bool
	processed int
}

// New creates a Loop.
func New(opts Options) (*Loop, error) {
	if opts.Source == nil {
		return nil, errors.New("key source is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}
	return &Loop{
		source:  opts.Source,
		handler: opts.Handler,
		log:     opts.Logger,
		swap:    make(chan Handler),
		pause:   make(chan bool),
		done:    make(chan struct{}),
	}, nil
}

// Run starts the source and handles events one at a time until ctx is
// cancelled. Cancellation is a clean shutdown and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	if err := l.source.Start(); err != nil {
		return fmt.Errorf("start key source: %w", err)
	}
	events := l.source.Events()
	l.log.Info().Msg("Event loop running")

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Int("events", l.processed).Msg("Event loop stopped")
			return nil

		case h := <-l.swap:
			l.handler = h
			l.log.Info().Msg("Detector reconfigured")

		case p := <-l.pause:
			if p == l.paused {
				continue
			}
			l.paused = p
			l.handler.Reset()
			l.log.Info().Bool("paused", p).Msg("Remapping toggled")

		case ev, ok := <-events:
			if !ok {
				return ErrSourceClosed
			}
			l.processed++
			if l.paused {
				continue
			}
			l.handler.HandleEvent(ev)
		}
	}
}

// Reconfigure replaces the handler between two events. The new handler
// starts with no keys held.
func (l *Loop) Reconfigure(ctx context.Context, h Handler) error {
	return send(ctx, l.done, l.swap, h)
}

// SetPaused stops or resumes feeding events to the handler.
func (l *Loop) SetPaused(ctx context.Context, paused bool) error {
	return send(ctx, l.done, l.pause, paused)
}

func send[T any](ctx context.Context, done <-chan struct{}, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-done:
		return errors.New("event loop not running")
	case <-ctx.Done():
		return ctx.Err()
	}
}
