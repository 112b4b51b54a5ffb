// Package watcher runs background housekeeping for live sessions.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
)

const (
	// DefaultInterval is how often idle sessions are looked for
	DefaultInterval = time.Minute
	// DefaultIdleTTL is how long a session may go unused before it is evicted
	DefaultIdleTTL = 30 * time.Minute
)

// Evictor drops sessions idle for longer than ttl and reports how many.
// *session.Manager satisfies it.
type Evictor interface {
	EvictIdle(ttl time.Duration) int
}

// SessionWatcher periodically evicts idle sessions from memory
type SessionWatcher struct {
	evictor  Evictor
	interval time.Duration
	ttl      time.Duration
	log      *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionWatcher creates a watcher. Non-positive durations use the defaults.
func NewSessionWatcher(parentCtx context.Context, evictor Evictor, interval, ttl time.Duration) *SessionWatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &SessionWatcher{
		evictor:  evictor,
		interval: interval,
		ttl:      ttl,
		log:      logger.With("Watcher"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the sweep loop
func (w *SessionWatcher) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop stops the sweep loop and waits for it to finish
func (w *SessionWatcher) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *SessionWatcher) run() {
	defer w.wg.Done()

	w.log.Info("Started", "interval", w.interval, "idle_ttl", w.ttl)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Stopped")
			return
		case <-ticker.C:
			if n := w.evictor.EvictIdle(w.ttl); n > 0 {
				w.log.Debug("Sweep completed", "evicted", n)
			}
		}
	}
}
