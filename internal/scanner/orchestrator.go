// Package scanner runs the scan pipeline: local collection of eligible words,
// one batched status query, then render into the highlight registry.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/index"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/jobs"
	"github.com/gcbaptista/go-vocab-highlighter/internal/lemma"
	"github.com/gcbaptista/go-vocab-highlighter/internal/tokenizer"
	"github.com/gcbaptista/go-vocab-highlighter/internal/vocab"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Options configures an Orchestrator.
type Options struct {
	Settings config.ScanSettings
	Clock    clockwork.Clock
	Passes   *jobs.Manager
	Logger   *slog.Logger
}

// Orchestrator owns the processing guard and drives every scan pass.
type Orchestrator struct {
	source     services.UnitSource
	lemmatizer *lemma.Lemmatizer
	filter     *vocab.Filter
	resolver   services.StatusResolver
	registry   *index.Registry
	passes     *jobs.Manager
	guard      *Guard

	minWordLength int
	disabled      atomic.Bool
	logger        *slog.Logger
}

// Collection is the outcome of local collection over a set of units.
type Collection struct {
	// WordToLemma maps a normalized surface form to its eligible lemmas; the
	// first lemma is the representative one.
	WordToLemma map[string][]string
	// LemmasToQuery is every eligible lemma of the batch, deduplicated, in
	// first-seen order.
	LemmasToQuery []string
	Candidates    int
}

// Request describes one scan.
type Request struct {
	Kind          model.PassKind
	Units         []model.ContentUnit
	ClearPrevious bool
	// Replace drops the entries already anchored in Units, once the pass
	// holds the guard, so a dropped request leaves them in place.
	Replace  bool
	Metadata map[string]string
}

// Result describes a finished scan.
type Result struct {
	PassID     string             `json:"pass_id"`
	Kind       model.PassKind     `json:"kind"`
	Units      int                `json:"units"`
	Candidates int                `json:"candidates"`
	Lemmas     int                `json:"lemmas"`
	Render     index.RenderResult `json:"render"`
}

// New creates an orchestrator.
func New(source services.UnitSource, lemmatizer *lemma.Lemmatizer, filter *vocab.Filter, resolver services.StatusResolver, registry *index.Registry, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	opts.Settings.ApplyDefaults()
	if opts.Passes == nil {
		opts.Passes = jobs.NewManager(jobs.Options{Clock: opts.Clock, Logger: opts.Logger})
	}
	if lemmatizer == nil {
		lemmatizer = lemma.NewLemmatizer(nil)
	}

	o := &Orchestrator{
		source:        source,
		lemmatizer:    lemmatizer,
		filter:        filter,
		resolver:      resolver,
		registry:      registry,
		passes:        opts.Passes,
		minWordLength: opts.Settings.MinWordLength,
		logger:        opts.Logger.With("component", "scanner"),
	}
	o.guard = NewGuard(opts.Clock, opts.Settings.WatchdogTimeout, o.onWatchdog)
	return o
}

// Guard exposes the processing guard shared with the change feed watcher.
func (o *Orchestrator) Guard() *Guard {
	return o.guard
}

// Passes returns the pass tracker.
func (o *Orchestrator) Passes() *jobs.Manager {
	return o.passes
}

// Processing reports whether a pass is in flight.
func (o *Orchestrator) Processing() bool {
	return o.guard.Processing()
}

// SetEnabled switches scanning on or off. Disabled scans fail with ErrFeatureDisabled.
func (o *Orchestrator) SetEnabled(enabled bool) {
	o.disabled.Store(!enabled)
}

// Enabled reports whether scanning is switched on.
func (o *Orchestrator) Enabled() bool {
	return !o.disabled.Load()
}

// FullScan rescans every unit of the document, wiping the registry first.
func (o *Orchestrator) FullScan(ctx context.Context) (Result, error) {
	return o.Scan(ctx, Request{Kind: model.PassKindFull, Units: o.source.Units(), ClearPrevious: true})
}

// ScanUnits scans only units, leaving existing entries untouched.
func (o *Orchestrator) ScanUnits(ctx context.Context, kind model.PassKind, units []model.ContentUnit) (Result, error) {
	return o.Scan(ctx, Request{Kind: kind, Units: units})
}

// RescanUnits rebuilds the entries of units whose text changed in place.
func (o *Orchestrator) RescanUnits(ctx context.Context, kind model.PassKind, units []model.ContentUnit) (Result, error) {
	return o.Scan(ctx, Request{Kind: kind, Units: units, Replace: true})
}

// Scan runs one pass. A request arriving while another pass holds the guard
// is dropped with ErrScanInProgress.
func (o *Orchestrator) Scan(ctx context.Context, req Request) (result Result, err error) {
	if req.Kind == "" {
		req.Kind = model.PassKindIncremental
		if req.ClearPrevious {
			req.Kind = model.PassKindFull
		}
	}
	result.Kind = req.Kind

	if !o.Enabled() {
		return result, internalErrors.ErrFeatureDisabled
	}

	token, ok := o.guard.TryAcquire(req.Kind)
	if !ok {
		o.passes.RecordDropped(req.Kind)
		o.logger.Debug("scan request dropped, pass in flight", slog.String("kind", string(req.Kind)))
		return result, internalErrors.ErrScanInProgress
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["units"] = strconv.Itoa(len(req.Units))
	passID := o.passes.BeginPass(req.Kind, metadata)
	o.guard.Attach(token, passID)
	result.PassID = passID

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s scan: %v", req.Kind, r)
			_ = o.passes.FailPass(passID, err)
			o.EmergencyStop(err.Error())
		}
	}()

	units := visibleUnits(req.Units)
	collection := o.Collect(units)
	progress := model.PassProgress{
		Units:         len(units),
		Candidates:    collection.Candidates,
		LemmasQueried: len(collection.LemmasToQuery),
	}
	o.passes.UpdatePassProgress(passID, progress)
	result.Units = len(units)
	result.Candidates = collection.Candidates
	result.Lemmas = len(collection.LemmasToQuery)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if o.guard.Release(token) {
			_ = o.passes.AbortPass(passID, ctxErr.Error())
		}
		return result, fmt.Errorf("%w: %v", internalErrors.ErrScanAborted, ctxErr)
	}
	if !o.guard.Holds(token) {
		// The watchdog fired during collection; skip the status query.
		return result, internalErrors.ErrScanAborted
	}

	statuses := o.resolve(ctx, collection.LemmasToQuery)

	rendered := o.guard.Finish(token, func() {
		if req.Replace {
			ids := make([]model.UnitID, 0, len(req.Units))
			for _, u := range req.Units {
				ids = append(ids, u.ID)
			}
			o.registry.DetachUnits(ids)
		}
		result.Render = o.registry.Render(units, statuses, collection.WordToLemma, req.ClearPrevious)
	})
	if !rendered {
		// The watchdog already released the guard and aborted the pass.
		return result, internalErrors.ErrScanAborted
	}

	progress.EntriesCreated = result.Render.Created
	progress.Dropped = result.Render.Dropped
	if err := o.passes.CompletePass(passID, progress); err != nil {
		o.logger.Warn("failed to complete pass", slog.String("pass_id", passID), slog.String("error", err.Error()))
	}
	return result, nil
}

// Collect walks units and builds the word-to-lemma map and the deduplicated
// list of lemmas to query. Compound tokens are judged part by part.
func (o *Orchestrator) Collect(units []model.ContentUnit) Collection {
	c := Collection{WordToLemma: make(map[string][]string), LemmasToQuery: make([]string, 0)}
	seenLemma := make(map[string]bool)
	rejected := make(map[string]bool)

	for _, unit := range units {
		for _, cand := range tokenizer.Candidates(unit.Text, o.minWordLength) {
			c.Candidates++
			if _, done := c.WordToLemma[cand.Normalized]; done || rejected[cand.Normalized] {
				continue
			}

			lemmas := o.lemmatizer.GetLemmasForWord(cand.Normalized)
			eligible := o.filter.EligibleLemmas(cand.Normalized, lemmas)
			if len(eligible) == 0 {
				rejected[cand.Normalized] = true
				continue
			}

			c.WordToLemma[cand.Normalized] = eligible
			for _, l := range eligible {
				if !seenLemma[l] {
					seenLemma[l] = true
					c.LemmasToQuery = append(c.LemmasToQuery, l)
				}
			}
		}
	}
	return c
}

// resolve issues the single batched status query. A failure is logged and
// every lemma falls back to unknown.
func (o *Orchestrator) resolve(ctx context.Context, lemmas []string) map[string]model.LemmaStatusRecord {
	if len(lemmas) == 0 || o.resolver == nil {
		return map[string]model.LemmaStatusRecord{}
	}

	statuses, err := o.resolver.QueryStatus(ctx, lemmas)
	if err != nil {
		qerr := internalErrors.NewStatusQueryError(len(lemmas), err)
		o.logger.Warn("status query failed, treating lemmas as unknown", slog.String("error", qerr.Error()))
		return map[string]model.LemmaStatusRecord{}
	}
	if statuses == nil {
		statuses = map[string]model.LemmaStatusRecord{}
	}
	return statuses
}

// EmergencyStop clears the registry and releases the guard.
func (o *Orchestrator) EmergencyStop(reason string) {
	kind, passID, wasHeld := o.guard.ForceRelease()
	o.registry.Clear()
	if wasHeld && passID != "" {
		_ = o.passes.AbortPass(passID, reason)
	}
	o.logger.Warn("emergency stop",
		slog.String("reason", reason),
		slog.String("kind", string(kind)),
		slog.Bool("pass_interrupted", wasHeld))
}

func (o *Orchestrator) onWatchdog(kind model.PassKind, passID string) {
	reason := fmt.Sprintf("%s scan exceeded watchdog timeout", kind)
	if passID != "" {
		_ = o.passes.AbortPass(passID, reason)
	}
	o.registry.Clear()
	o.logger.Warn("emergency stop", slog.String("reason", reason), slog.String("pass_id", passID))
}

func visibleUnits(units []model.ContentUnit) []model.ContentUnit {
	out := make([]model.ContentUnit, 0, len(units))
	for _, u := range units {
		if !u.Hidden {
			out = append(out, u)
		}
	}
	return out
}
