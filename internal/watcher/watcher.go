// Package watcher turns change feed batches into scans. Batches are sorted
// into three buckets with their own cadence: high-frequency containers,
// regular added units, and free-text edits that need a full rescan.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/scanner"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Scanner is the part of the scan orchestrator the watcher drives.
type Scanner interface {
	FullScan(ctx context.Context) (scanner.Result, error)
	ScanUnits(ctx context.Context, kind model.PassKind, units []model.ContentUnit) (scanner.Result, error)
	RescanUnits(ctx context.Context, kind model.PassKind, units []model.ContentUnit) (scanner.Result, error)
	Processing() bool
}

// Detacher drops registry entries anchored in the given units.
type Detacher interface {
	DetachUnits(ids []model.UnitID) int
}

// Options configures a Watcher.
type Options struct {
	HighFrequencyDebounce time.Duration
	IncrementalDebounce   time.Duration
	Clock                 clockwork.Clock
	Logger                *slog.Logger
}

// Stats counts what the watcher did with the batches it saw.
type Stats struct {
	Batches            int64 `json:"batches"`
	Ignored            int64 `json:"ignored"` // arrived while a scan was processing
	FullRescans        int64 `json:"full_rescans"`
	IncrementalScans   int64 `json:"incremental_scans"`
	HighFrequencyScans int64 `json:"high_frequency_scans"`
	Dropped            int64 `json:"dropped"` // flushes refused by the processing guard
}

// Watcher classifies change batches and schedules scans.
type Watcher struct {
	source   services.UnitSource
	scanner  Scanner
	registry Detacher
	clock    clockwork.Clock
	hfDelay  time.Duration
	incDelay time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	pendingFull bool
	pendingIDs  map[model.UnitID]struct{}
	pendingHF   map[string]struct{}
	incTimer    clockwork.Timer
	hfTimers    map[string]clockwork.Timer

	batches, ignored, full, incremental, highFrequency, dropped atomic.Int64
}

// New creates a watcher over the live document.
func New(source services.UnitSource, scan Scanner, registry Detacher, opts Options) *Watcher {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HighFrequencyDebounce <= 0 {
		opts.HighFrequencyDebounce = 100 * time.Millisecond
	}
	if opts.IncrementalDebounce <= 0 {
		opts.IncrementalDebounce = 500 * time.Millisecond
	}
	return &Watcher{
		source:     source,
		scanner:    scan,
		registry:   registry,
		clock:      opts.Clock,
		hfDelay:    opts.HighFrequencyDebounce,
		incDelay:   opts.IncrementalDebounce,
		logger:     opts.Logger.With("component", "watcher"),
		pendingIDs: make(map[model.UnitID]struct{}),
		pendingHF:  make(map[string]struct{}),
		hfTimers:   make(map[string]clockwork.Timer),
	}
}

// Run consumes feed until ctx is done or the feed closes.
func (w *Watcher) Run(ctx context.Context, feed services.ChangeFeed) error {
	batches := feed.Subscribe(ctx)
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			w.HandleBatch(ctx, batch)
		}
	}
}

// HandleBatch classifies one batch. Removed units are always detached from
// the registry; everything else is ignored while a scan is processing.
func (w *Watcher) HandleBatch(ctx context.Context, batch model.ChangeBatch) {
	w.batches.Add(1)

	if len(batch.Removed) > 0 && w.registry != nil {
		if n := w.registry.DetachUnits(batch.Removed); n > 0 {
			w.logger.Debug("detached entries of removed units", slog.Int("entries", n), slog.Int("units", len(batch.Removed)))
		}
	}

	if w.scanner.Processing() {
		w.ignored.Add(1)
		w.logger.Debug("batch ignored, scan in flight")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if batch.FreeTextChanged {
		w.pendingFull = true
		w.pendingIDs = make(map[model.UnitID]struct{})
		w.armIncrementalLocked(ctx)
	}

	for _, u := range batch.Added {
		if u.Hidden || strings.TrimSpace(u.Text) == "" {
			continue
		}
		if u.HighFrequency {
			w.armHighFrequencyLocked(ctx, u.Container)
			continue
		}
		if !w.pendingFull {
			w.pendingIDs[u.ID] = struct{}{}
			w.armIncrementalLocked(ctx)
		}
	}

	for _, id := range batch.Changed {
		u, ok := w.source.Unit(id)
		if ok && u.HighFrequency {
			w.armHighFrequencyLocked(ctx, u.Container)
		}
	}
}

// Stop cancels every pending flush.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.incTimer != nil {
		w.incTimer.Stop()
		w.incTimer = nil
	}
	for c, t := range w.hfTimers {
		t.Stop()
		delete(w.hfTimers, c)
	}
	w.pendingFull = false
	w.pendingIDs = make(map[model.UnitID]struct{})
	w.pendingHF = make(map[string]struct{})
}

// Stats returns the watcher counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Batches:            w.batches.Load(),
		Ignored:            w.ignored.Load(),
		FullRescans:        w.full.Load(),
		IncrementalScans:   w.incremental.Load(),
		HighFrequencyScans: w.highFrequency.Load(),
		Dropped:            w.dropped.Load(),
	}
}

// armIncrementalLocked restarts the regular debounce window.
func (w *Watcher) armIncrementalLocked(ctx context.Context) {
	if w.incTimer != nil {
		w.incTimer.Stop()
	}
	w.incTimer = w.clock.AfterFunc(w.incDelay, func() { w.flushIncremental(ctx) })
}

// armHighFrequencyLocked restarts the debounce window of one container.
func (w *Watcher) armHighFrequencyLocked(ctx context.Context, container string) {
	w.pendingHF[container] = struct{}{}
	if t, ok := w.hfTimers[container]; ok {
		t.Stop()
	}
	w.hfTimers[container] = w.clock.AfterFunc(w.hfDelay, func() { w.flushHighFrequency(ctx, container) })
}

func (w *Watcher) flushIncremental(ctx context.Context) {
	w.mu.Lock()
	full := w.pendingFull
	ids := make([]model.UnitID, 0, len(w.pendingIDs))
	for id := range w.pendingIDs {
		ids = append(ids, id)
	}
	w.pendingFull = false
	w.pendingIDs = make(map[model.UnitID]struct{})
	w.incTimer = nil
	w.mu.Unlock()

	if full {
		_, err := w.scanner.FullScan(ctx)
		w.record(err, model.PassKindFull, &w.full)
		return
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	units := make([]model.ContentUnit, 0, len(ids))
	for _, id := range ids {
		// Units removed before the window closed are skipped.
		if u, ok := w.source.Unit(id); ok {
			units = append(units, u)
		}
	}
	if len(units) == 0 {
		return
	}
	_, err := w.scanner.ScanUnits(ctx, model.PassKindIncremental, units)
	w.record(err, model.PassKindIncremental, &w.incremental)
}

func (w *Watcher) flushHighFrequency(ctx context.Context, container string) {
	w.mu.Lock()
	_, pending := w.pendingHF[container]
	delete(w.pendingHF, container)
	delete(w.hfTimers, container)
	w.mu.Unlock()
	if !pending {
		return
	}

	units := w.source.UnitsInContainer(container)
	if len(units) == 0 {
		return
	}
	// Cue text is rewritten in place, so the container's old entries are
	// rebuilt from scratch. A dropped flush keeps them until the next cue.
	_, err := w.scanner.RescanUnits(ctx, model.PassKindHighFrequency, units)
	w.record(err, model.PassKindHighFrequency, &w.highFrequency)
}

func (w *Watcher) record(err error, kind model.PassKind, counter *atomic.Int64) {
	switch {
	case err == nil:
		counter.Add(1)
	case errors.Is(err, internalErrors.ErrScanInProgress):
		w.dropped.Add(1)
		w.logger.Debug("flush dropped, scan in flight", slog.String("kind", string(kind)))
	case errors.Is(err, internalErrors.ErrFeatureDisabled):
		w.logger.Debug("flush skipped, highlighting disabled", slog.String("kind", string(kind)))
	default:
		w.logger.Warn("scan failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))
	}
}
