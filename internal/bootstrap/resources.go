package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Resources collects shutdown hooks of pools, clients and exporters opened while wiring.
type Resources struct {
	mu      sync.Mutex
	closers []closer
	logger  *slog.Logger
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// NewResources returns an empty registry.
func NewResources(logger *slog.Logger) *Resources {
	return &Resources{logger: logger.With("component", "bootstrap.resources")}
}

// Add registers fn to run on Close.
func (r *Resources) Add(name string, fn func(context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

// AddFunc registers a close hook that cannot fail.
func (r *Resources) AddFunc(name string, fn func()) {
	r.Add(name, func(context.Context) error {
		fn()
		return nil
	})
}

// Close runs the hooks in reverse registration order and joins their errors.
// It is safe to call more than once.
func (r *Resources) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
			continue
		}
		r.logger.Debug("resource closed", "name", c.name)
	}
	return errors.Join(errs...)
}
