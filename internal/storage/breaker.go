package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the circuit breaker around a media backend.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// OnStateChange is notified on every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

type breakerStorage struct {
	next Storage
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps a Storage so repeated upstream failures fail fast with
// ErrUnavailable instead of holding admin requests on a dead CDN.
func WithBreaker(next Storage, s BreakerSettings) Storage {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	threshold := s.ConsecutiveFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "media-" + next.Driver(),
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: s.OnStateChange,
	})
	return &breakerStorage{next: next, cb: cb}
}

func (b *breakerStorage) Driver() string { return b.next.Driver() }

func (b *breakerStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Put(ctx, key, r, opt)
	})
	if err != nil {
		return ObjectInfo{}, breakerErr(err)
	}
	return res.(ObjectInfo), nil
}

func (b *breakerStorage) Delete(ctx context.Context, ref ObjectRef) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, ref)
	})
	return breakerErr(err)
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
