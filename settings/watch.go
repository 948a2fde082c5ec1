package settings

import (
	"context"
	"sync/atomic"
	"time"
)

// WatchOptions tune the hot-reload loop.
type WatchOptions struct {
	// Interval is the polling frequency. Default: 1s.
	Interval time.Duration
	// Debounce is the quiet period after a change before fn fires. Further
	// changes during the window restart it. 0 fires immediately.
	Debounce time.Duration
}

func (o *WatchOptions) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
}

// WatchStats are point-in-time counters of a watch loop.
type WatchStats struct {
	Checks  int64 `json:"checks"`
	Changes int64 `json:"changes"`
	Errors  int64 `json:"errors"`
	Reloads int64 `json:"reloads"`
}

// Watcher polls the store revision and reloads settings on change.
type Watcher struct {
	store *Store
	opts  WatchOptions

	revision atomic.Int64
	checks   atomic.Int64
	changes  atomic.Int64
	errors   atomic.Int64
	reloads  atomic.Int64
}

// NewWatcher creates a Watcher on s. Call Run to start the loop.
func NewWatcher(s *Store, opts WatchOptions) *Watcher {
	opts.defaults()
	w := &Watcher{store: s, opts: opts}
	w.revision.Store(-1)
	return w
}

// Stats returns the loop counters.
func (w *Watcher) Stats() WatchStats {
	return WatchStats{
		Checks:  w.checks.Load(),
		Changes: w.changes.Load(),
		Errors:  w.errors.Load(),
		Reloads: w.reloads.Load(),
	}
}

// Run blocks until ctx is cancelled. When the revision changes and the
// debounce window passes quietly, the settings are reloaded and passed to
// fn. A failed load leaves the revision unchanged so the next poll retries.
func (w *Watcher) Run(ctx context.Context, fn func(Settings)) {
	log := w.store.logger

	if v, err := w.store.Revision(ctx); err != nil {
		log.Warn("settings: initial revision check failed", "error", err)
	} else {
		w.revision.Store(v)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var debounce *time.Timer
	var debounceC <-chan time.Time
	pending := int64(-1)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.store.Revision(ctx)
			if err != nil {
				w.errors.Add(1)
				log.Warn("settings: revision check failed", "error", err)
				continue
			}
			if cur == w.revision.Load() || cur == pending {
				continue
			}
			w.changes.Add(1)
			pending = cur
			if w.opts.Debounce <= 0 {
				w.reload(ctx, fn, pending)
				pending = -1
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(w.opts.Debounce)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			if pending >= 0 {
				w.reload(ctx, fn, pending)
				pending = -1
			}
		}
	}
}

func (w *Watcher) reload(ctx context.Context, fn func(Settings), rev int64) {
	s, err := w.store.Load(ctx)
	if err != nil {
		w.errors.Add(1)
		w.store.logger.Error("settings: reload failed", "error", err, "revision", rev)
		return
	}
	w.reloads.Add(1)
	w.revision.Store(rev)
	w.store.logger.Info("settings: reloaded", "revision", rev)
	fn(s)
}
