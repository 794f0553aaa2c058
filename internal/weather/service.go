package weather

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL is how long a cached payload is served when no TTL is configured.
const DefaultTTL = 120 * time.Second

// Service puts a single-slot TTL cache in front of a Fetcher.
type Service struct {
	store   Store
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new Service. A ttl <= 0 disables cache reuse entirely.
func NewService(store Store, fetcher Fetcher, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		store:   store,
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured cache lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Read returns the weather payload. Unless bypassCache is set, a payload
// stored less than TTL ago is returned without calling the Fetcher.
//
// On fetch or validation failure the cached payload, if any, is kept and
// the error is returned as is.
func (s *Service) Read(ctx context.Context, bypassCache bool) (Payload, error) {
	if !bypassCache {
		if p, ok := s.cached(); ok {
			return p, nil
		}
	}

	payload, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	s.store.Save(payload, s.now())
	return payload, nil
}

// Fresh always fetches a new payload.
func (s *Service) Fresh(ctx context.Context) (Payload, error) {
	return s.Read(ctx, true)
}

// Cached serves the cached payload while it is within TTL.
func (s *Service) Cached(ctx context.Context) (Payload, error) {
	return s.Read(ctx, false)
}

// Refresh fetches a new payload and reports only the outcome.
// Used by the background warmer.
func (s *Service) Refresh(ctx context.Context) error {
	if _, err := s.Fresh(ctx); err != nil {
		return fmt.Errorf("refresh weather cache: %w", err)
	}
	return nil
}

// Snapshot returns the currently cached payload and its timestamp.
func (s *Service) Snapshot() (Snapshot, bool) {
	return s.store.Load()
}

func (s *Service) cached() (Payload, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	snap, ok := s.store.Load()
	if !ok || snap.Age(s.now()) >= s.ttl {
		return nil, false
	}
	return snap.Payload, true
}
