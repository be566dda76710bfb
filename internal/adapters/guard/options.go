package guard

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/eventrec/pkg/logger"
)

// Option configures a guarded collaborator.
type Option func(*guard)

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(g *guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLimiter paces calls. Pass the same limiter to several collaborators
// to share one budget.
func WithLimiter(l *rate.Limiter) Option {
	return func(g *guard) {
		g.limiter = l
	}
}

// WithBreaker replaces the default breaker settings.
func WithBreaker(s BreakerSettings) Option {
	return func(g *guard) {
		if s.MaxRequests == 0 {
			s.MaxRequests = 1
		}
		g.breaker = s
	}
}

// WithLogger sets the logger used for breaker transitions.
func WithLogger(l logger.Logger) Option {
	return func(g *guard) {
		if l != nil {
			g.logger = l
		}
	}
}
