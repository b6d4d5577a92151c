// Package throttle rate-limits noisy log paths.
//
// The limiter is an injected collaborator holding its own state, so callers
// share one throttle per concern instead of process-wide globals.
package throttle

import (
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Logger wraps a slog.Logger behind a token bucket. Messages that exceed
// the budget are counted and folded into the next emitted line as a
// "dropped" attribute.
type Logger struct {
	log     *slog.Logger
	lim     *rate.Limiter
	dropped atomic.Int64
}

// New allows one message per interval with the given burst.
func New(log *slog.Logger, interval time.Duration, burst int) *Logger {
	if burst <= 0 {
		burst = 1
	}
	return &Logger{
		log: log,
		lim: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Warn logs at warn level if the budget allows, otherwise drops the message.
func (l *Logger) Warn(msg string, args ...any) {
	if !l.lim.Allow() {
		l.dropped.Add(1)
		return
	}
	if n := l.dropped.Swap(0); n > 0 {
		args = append(args, slog.Int64("dropped", n))
	}
	l.log.Warn(msg, args...)
}

// Dropped returns the number of messages suppressed since the last emit.
func (l *Logger) Dropped() int64 { return l.dropped.Load() }
