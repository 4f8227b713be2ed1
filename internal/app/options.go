package app

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type options struct {
	now    func() time.Time
	logger *slog.Logger
	newID  func() string
}

// Option configures the planner stores.
type Option func(*options)

// WithClock overrides the time source used to compute "today" and the
// current week.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIDGenerator overrides how manual shopping items are identified.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
