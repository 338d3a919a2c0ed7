// Package autosave periodically flushes the content store to durable storage.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("layer", "autosave")

// Flusher writes every in-memory collection to storage.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Status is the outcome of the last flush.
type Status struct {
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

// Autosaver flushes Flusher every interval and once more when stopped.
type Autosaver struct {
	f            Flusher
	interval     time.Duration
	finalTimeout time.Duration

	mu   sync.RWMutex
	last *Status
}

// New returns Autosaver. finalTimeout bounds the flush performed on shutdown.
func New(f Flusher, interval, finalTimeout time.Duration) *Autosaver {
	return &Autosaver{
		f:            f,
		interval:     interval,
		finalTimeout: finalTimeout,
	}
}

// Run flushes until ctx is cancelled, then does the final flush with a fresh context.
// A failed periodic flush is logged and retried on the next tick.
func (a *Autosaver) Run(ctx context.Context) error {
	if a.interval <= 0 {
		return fmt.Errorf("invalid autosave interval %s", a.interval)
	}

	t := time.NewTicker(a.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return a.final()
		case <-t.C:
			if err := a.flush(ctx); err != nil {
				log.WithError(err).Error("autosave failed")
			}
		}
	}
}

func (a *Autosaver) final() error {
	log.Info("saving collections before exit")

	ctx, cancel := context.WithTimeout(context.Background(), a.finalTimeout)
	defer cancel()

	if err := a.flush(ctx); err != nil {
		return fmt.Errorf("failed to save collections on exit: %w", err)
	}

	log.Info("collections saved")

	return nil
}

func (a *Autosaver) flush(ctx context.Context) error {
	err := a.f.Flush(ctx)

	s := Status{At: time.Now().UTC()}
	if err != nil {
		s.Error = err.Error()
	}

	a.mu.Lock()
	a.last = &s
	a.mu.Unlock()

	return err
}

// Last returns the outcome of the last flush or nil if nothing was flushed yet.
func (a *Autosaver) Last() *Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.last == nil {
		return nil
	}

	s := *a.last
	return &s
}

// Ping reports the last flush as meta and fails when it has failed.
func (a *Autosaver) Ping(_ context.Context) (interface{}, error) {
	s := a.Last()
	if s == nil {
		return nil, nil
	}
	if s.Error != "" {
		return s, fmt.Errorf("last autosave failed: %s", s.Error)
	}

	return s, nil
}

// Name ...
func (a *Autosaver) Name() string {
	return "autosave"
}
