package storefront

import (
	"net/http"
	"time"

	"github.com/ecotoken/storefront/logger"
	"github.com/ecotoken/storefront/metrics"
)

type Option func(*Store)

func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Store) {
		s.rec = r
	}
}

// WithTimeout bounds the store's outbound HTTP calls. The default is no
// timeout.
func WithTimeout(t time.Duration) Option {
	return func(s *Store) {
		s.timeout = t
	}
}

// WithHTTPClient replaces the outbound transport entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.httpClient = c
	}
}
