package memory

import "github.com/okian/eventrec/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLearningRate sets how far each interaction moves a learned category
// weight toward its signal, in (0,1].
func WithLearningRate(rate float64) Option {
	return func(s *Store) {
		if rate > 0 && rate <= 1 {
			s.learningRate = rate
		}
	}
}
