// Package engine wires the highlighter together: document store, layout,
// registry, filter, scan orchestrator, change feed watcher and interaction
// layer. It also reacts to learner configuration changes.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/index"
	"github.com/gcbaptista/go-vocab-highlighter/internal/configstore"
	"github.com/gcbaptista/go-vocab-highlighter/internal/feed"
	"github.com/gcbaptista/go-vocab-highlighter/internal/interaction"
	"github.com/gcbaptista/go-vocab-highlighter/internal/jobs"
	"github.com/gcbaptista/go-vocab-highlighter/internal/layout"
	"github.com/gcbaptista/go-vocab-highlighter/internal/lemma"
	"github.com/gcbaptista/go-vocab-highlighter/internal/render"
	"github.com/gcbaptista/go-vocab-highlighter/internal/scanner"
	"github.com/gcbaptista/go-vocab-highlighter/internal/statusapi"
	"github.com/gcbaptista/go-vocab-highlighter/internal/vocab"
	"github.com/gcbaptista/go-vocab-highlighter/internal/watcher"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
	"github.com/gcbaptista/go-vocab-highlighter/store"
)

// Deps are the external collaborators. Nil fields get in-process defaults.
type Deps struct {
	Resolver services.StatusResolver
	Config   services.ConfigStore
	Display  services.DisplaySurface
	Renderer services.Renderer
	// Analyzer defaults to the English analyzer using the whitelist as lexicon.
	Analyzer services.Analyzer
	// Feeds are extra change feeds merged into the engine's own mutation feed.
	Feeds []services.ChangeFeed
}

// Options configures an Engine.
type Options struct {
	Settings config.ScanSettings
	// Site is the host the document belongs to, matched against the site lists.
	Site          string
	Whitelist     []string
	WhitelistPath string
	Columns       int
	Clock         clockwork.Clock
	Registerer    prometheus.Registerer
	Logger        *slog.Logger
}

// Engine is one highlighted document and everything that serves it.
type Engine struct {
	settings config.ScanSettings
	site     string

	store       *store.DocumentStore
	layout      *layout.Monospace
	renderer    services.Renderer
	registry    *index.Registry
	lemmatizer  *lemma.Lemmatizer
	filter      *vocab.Filter
	resolver    services.StatusResolver
	config      services.ConfigStore
	display     services.DisplaySurface
	passes      *jobs.Manager
	scanner     *scanner.Orchestrator
	watcher     *watcher.Watcher
	interaction *interaction.Layer
	mutations   *feed.Channel
	feeds       []services.ChangeFeed

	mu      sync.Mutex
	active  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool

	logger *slog.Logger
}

// New builds an engine. Nothing runs until Start.
func New(deps Deps, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	opts.Settings.ApplyDefaults()
	if problems := opts.Settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid scan settings: %v", problems)
	}
	logger := opts.Logger

	if deps.Resolver == nil {
		deps.Resolver = statusapi.NewMemory()
	}
	if deps.Config == nil {
		deps.Config = configstore.NewMemory(config.DefaultLearnerSettings(), logger)
	}
	if deps.Display == nil {
		deps.Display = render.NewCardLog(0)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewRecorder(1000)
	}

	ds, err := store.NewDocumentStore(opts.Settings.HighFrequencySelectors)
	if err != nil {
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}

	filter := vocab.NewFilter(deps.Config, logger)
	switch {
	case opts.WhitelistPath != "":
		if err := filter.LoadWhitelistFile(opts.WhitelistPath); err != nil {
			return nil, err
		}
	case opts.Whitelist != nil:
		filter.LoadWhitelist(opts.Whitelist)
	}

	learner := deps.Config.Get()
	lay := layout.NewMonospace(ds, opts.Columns, 0, 0)
	registry := index.NewRegistry(deps.Renderer, lay, index.Options{
		MinWordLength:     opts.Settings.MinWordLength,
		MaxMatchesPerUnit: opts.Settings.MaxMatchesPerUnit,
		Palette:           learner.Palette,
		Logger:            logger,
	})
	if deps.Analyzer == nil {
		deps.Analyzer = lemma.NewEnglishAnalyzer(lemma.WithLexicon(filter.InWhitelist))
	}
	lemmatizer := lemma.NewLemmatizer(deps.Analyzer)

	passes := jobs.NewManager(jobs.Options{Clock: opts.Clock, Registerer: opts.Registerer, Logger: logger})
	orchestrator := scanner.New(ds, lemmatizer, filter, deps.Resolver, registry, scanner.Options{
		Settings: opts.Settings,
		Clock:    opts.Clock,
		Passes:   passes,
		Logger:   logger,
	})
	w := watcher.New(ds, orchestrator, registry, watcher.Options{
		HighFrequencyDebounce: opts.Settings.HighFrequencyDebounce,
		IncrementalDebounce:   opts.Settings.IncrementalDebounce,
		Clock:                 opts.Clock,
		Logger:                logger,
	})
	layer := interaction.New(registry, lay, ds, lemmatizer, filter, deps.Resolver, deps.Display, interaction.Options{
		Settings: opts.Settings,
		Logger:   logger,
	})

	e := &Engine{
		settings:    opts.Settings,
		site:        opts.Site,
		store:       ds,
		layout:      lay,
		renderer:    deps.Renderer,
		registry:    registry,
		lemmatizer:  lemmatizer,
		filter:      filter,
		resolver:    deps.Resolver,
		config:      deps.Config,
		display:     deps.Display,
		passes:      passes,
		scanner:     orchestrator,
		watcher:     w,
		interaction: layer,
		mutations:   feed.NewChannel(0, logger),
		feeds:       deps.Feeds,
		logger:      logger.With("component", "engine"),
	}

	filter.SetIgnored(learner.IgnoredWords)
	e.active = learner.Active(e.site)
	orchestrator.SetEnabled(e.active)
	return e, nil
}

// Start launches the watcher, the feed forwarders, the pass cleanup routine
// and the configuration listener.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	e.passes.Start()

	batches := e.mutations.Subscribe(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.watcher.Run(ctx, chanFeed(batches)); err != nil && ctx.Err() == nil {
			e.logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	for _, f := range e.feeds {
		e.wg.Add(1)
		go func(f services.ChangeFeed) {
			defer e.wg.Done()
			for batch := range f.Subscribe(ctx) {
				e.mutations.Publish(batch)
			}
		}(f)
	}

	changes, unsubscribe := e.config.Subscribe()
	e.registry.OnDestroy(unsubscribe)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				e.HandleConfigChange(ctx, change)
			}
		}
	}()

	e.logger.Info("engine started",
		slog.String("site", e.site),
		slog.Bool("active", e.Active()),
		slog.Int("whitelist", e.filter.WhitelistSize()))
	return nil
}

// Stop ends every background routine and tears the registry down, which
// also detaches the configuration listener.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	e.watcher.Stop()
	e.interaction.Wait()
	e.passes.Stop()
	e.mutations.Close()
	e.registry.Destroy()
	e.logger.Info("engine stopped")
}

// AddFeed merges another change feed into the engine. Feeds must be added
// before Start.
func (e *Engine) AddFeed(f services.ChangeFeed) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("cannot add a feed to a started engine")
	}
	e.feeds = append(e.feeds, f)
	return nil
}

// chanFeed adapts a subscribed channel back into a ChangeFeed for the watcher.
type chanFeed <-chan model.ChangeBatch

func (c chanFeed) Subscribe(context.Context) <-chan model.ChangeBatch { return c }

// Registry returns the highlight registry.
func (e *Engine) Registry() *index.Registry { return e.registry }

// Store returns the document store.
func (e *Engine) Store() *store.DocumentStore { return e.store }

// Layout returns the document layout.
func (e *Engine) Layout() *layout.Monospace { return e.layout }

// Filter returns the vocabulary filter.
func (e *Engine) Filter() *vocab.Filter { return e.filter }

// Passes returns the scan pass tracker.
func (e *Engine) Passes() *jobs.Manager { return e.passes }

// Scanner returns the scan orchestrator.
func (e *Engine) Scanner() *scanner.Orchestrator { return e.scanner }

// Watcher returns the change feed watcher.
func (e *Engine) Watcher() *watcher.Watcher { return e.watcher }

// Interaction returns the interaction layer.
func (e *Engine) Interaction() *interaction.Layer { return e.interaction }

// Display returns the display surface.
func (e *Engine) Display() services.DisplaySurface { return e.display }

// Config returns the learner configuration store.
func (e *Engine) Config() services.ConfigStore { return e.config }

// Settings returns the scan settings in effect.
func (e *Engine) Settings() config.ScanSettings { return e.settings }

// Active reports whether highlighting currently runs for the engine's site.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}
