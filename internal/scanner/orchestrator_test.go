package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/index"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/jobs"
	"github.com/gcbaptista/go-vocab-highlighter/internal/layout"
	"github.com/gcbaptista/go-vocab-highlighter/internal/lemma"
	"github.com/gcbaptista/go-vocab-highlighter/internal/render"
	testutil "github.com/gcbaptista/go-vocab-highlighter/internal/testing"
	"github.com/gcbaptista/go-vocab-highlighter/internal/vocab"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/store"
)

type scanFixture struct {
	ds       *store.DocumentStore
	recorder *render.Recorder
	registry *index.Registry
	filter   *vocab.Filter
	resolver *testutil.RecordingResolver
	clock    *clockwork.FakeClock
	scanner  *Orchestrator
}

func newScanFixture(t *testing.T, doc string, whitelist []string, statuses map[string]model.Status) *scanFixture {
	t.Helper()
	ds, err := store.NewDocumentStore(config.DefaultHighFrequencySelectors)
	require.NoError(t, err)
	_, err = ds.LoadHTML(strings.NewReader(doc))
	require.NoError(t, err)

	rec := render.NewRecorder(0)
	registry := index.NewRegistry(rec, layout.NewMonospace(ds, 80, 8, 16), index.Options{})
	filter := vocab.NewFilter(testutil.NewConfigStore(), nil)
	filter.LoadWhitelist(whitelist)
	resolver := testutil.NewRecordingResolver(statuses)
	clock := clockwork.NewFakeClock()

	o := New(ds, lemma.NewLemmatizer(nil), filter, resolver, registry, Options{
		Settings: config.DefaultScanSettings(),
		Clock:    clock,
		Passes:   jobs.NewManager(jobs.Options{Clock: clock}),
	})
	return &scanFixture{ds: ds, recorder: rec, registry: registry, filter: filter, resolver: resolver, clock: clock, scanner: o}
}

func surfaces(entries []model.HighlightEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Occurrence.OriginalText)
	}
	return out
}

func TestScan_LearningWordScenario(t *testing.T) {
	f := newScanFixture(t, "<p>I am testing this.</p>", []string{"test"}, map[string]model.Status{"test": model.StatusLearning})

	result, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Render.Created)

	entries := f.registry.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "testing", entries[0].Occurrence.OriginalText)
	assert.Equal(t, []string{"test"}, entries[0].Occurrence.Lemmas)
	assert.Equal(t, model.StatusLearning, entries[0].Status)
	assert.Len(t, f.recorder.Set(index.SetLearning), 1)

	pass, err := f.scanner.Passes().GetPass(result.PassID)
	require.NoError(t, err)
	testutil.AssertPassCompleted(t, pass, model.PassKindFull)
	assert.Equal(t, 1, pass.Progress.EntriesCreated)
}

func TestScan_ShortTokensNeverScanned(t *testing.T) {
	f := newScanFixture(t, "<p>an ox is big</p>", []string{"an", "ox", "be", "big"}, nil)

	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"big"}, surfaces(f.registry.Entries()))
	assert.Equal(t, []string{"big"}, f.resolver.QueriedLemmas())
}

func TestScan_IgnoredLemmaNeverQueried(t *testing.T) {
	f := newScanFixture(t, "<p>Quickly, he runs quickly.</p>", []string{"quick", "run"}, nil)
	require.NoError(t, f.filter.AddIgnoredWord(context.Background(), "quick"))

	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"runs"}, surfaces(f.registry.Entries()))
	assert.NotContains(t, f.resolver.QueriedLemmas(), "quick")
}

func TestScan_IgnoredSurfaceSurvivesFullAndIncrementalScans(t *testing.T) {
	f := newScanFixture(t, "<p>quickly runs</p>", []string{"quick", "run"}, nil)
	require.NoError(t, f.filter.AddIgnoredWord(context.Background(), "quickly"))

	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"runs"}, surfaces(f.registry.Entries()))

	batch, err := f.ds.AppendHTML(strings.NewReader("<p>He left quickly.</p>"))
	require.NoError(t, err)
	_, err = f.scanner.ScanUnits(context.Background(), model.PassKindIncremental, batch.Added)
	require.NoError(t, err)
	assert.Equal(t, []string{"runs"}, surfaces(f.registry.Entries()))
}

func TestScan_IncrementalAddsWithoutTouchingPrior(t *testing.T) {
	f := newScanFixture(t, "<p>I am testing this.</p>", []string{"test", "quick", "run"},
		map[string]model.Status{"test": model.StatusLearning})

	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	before := f.registry.Entries()

	batch, err := f.ds.AppendHTML(strings.NewReader("<p>quickly runs</p>"))
	require.NoError(t, err)
	result, err := f.scanner.ScanUnits(context.Background(), model.PassKindIncremental, batch.Added)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Render.Created)
	after := f.registry.Entries()
	require.Len(t, after, 3)
	assert.Equal(t, before, after[:1])
	assert.Equal(t, []string{"testing", "quickly", "runs"}, surfaces(after))
	assert.Equal(t, [][]string{{"test"}, {"quick", "run"}}, f.resolver.Queries(), "one batched query per pass")
}

func TestRescanUnits_ReplacesEntriesOnlyWhenAccepted(t *testing.T) {
	f := newScanFixture(t, "<p>testing</p>", []string{"test", "quick"}, nil)
	ctx := context.Background()

	_, err := f.scanner.FullScan(ctx)
	require.NoError(t, err)
	unit := f.ds.Units()[0]
	_, err = f.ds.ReplaceText(unit.ID, "quickly")
	require.NoError(t, err)
	unit, ok := f.ds.Unit(unit.ID)
	require.True(t, ok)

	token, ok := f.scanner.guard.TryAcquire(model.PassKindFull)
	require.True(t, ok)
	_, err = f.scanner.RescanUnits(ctx, model.PassKindHighFrequency, []model.ContentUnit{unit})
	require.ErrorIs(t, err, internalErrors.ErrScanInProgress)
	assert.Equal(t, []string{"testing"}, surfaces(f.registry.Entries()), "a dropped rescan keeps the old entries")
	require.True(t, f.scanner.guard.Release(token))

	_, err = f.scanner.RescanUnits(ctx, model.PassKindHighFrequency, []model.ContentUnit{unit})
	require.NoError(t, err)
	assert.Equal(t, []string{"quickly"}, surfaces(f.registry.Entries()))
}

func TestScan_FullRescanIsIdempotent(t *testing.T) {
	f := newScanFixture(t, "<p>Testing runs quickly.</p><p>More tests here.</p>", []string{"test", "run", "quick"},
		map[string]model.Status{"run": model.StatusKnown})

	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	first := f.registry.Snapshot()
	_, err = f.scanner.FullScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, f.registry.Snapshot())
}

func TestScan_CompoundPartsBecomeSeparateEntries(t *testing.T) {
	f := newScanFixture(t, "<p>Testing the gridLayout's ExpectTypeOf helper.</p>", []string{"expect", "type", "helper"}, nil)

	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)

	entries := f.registry.Entries()
	assert.Equal(t, []string{"Expect", "Type", "helper"}, surfaces(entries))
	require.Len(t, entries, 3)
	assert.LessOrEqual(t, entries[0].Occurrence.Anchor.End, entries[1].Occurrence.Anchor.Start, "parts have disjoint ranges")
}

func TestScan_StatusQueryFailureFailsOpen(t *testing.T) {
	f := newScanFixture(t, "<p>testing quickly</p>", []string{"test", "quick"},
		map[string]model.Status{"test": model.StatusKnown})
	f.resolver.Err = errors.New("service unavailable")

	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)

	entries := f.registry.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, model.StatusUnknown, e.Status)
		assert.Equal(t, 0, e.FamiliarityLevel)
	}
}

func TestScan_NothingEligibleSkipsQuery(t *testing.T) {
	f := newScanFixture(t, "<p>nothing matches here</p>", []string{"test"}, nil)

	result, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Lemmas)
	assert.Empty(t, f.resolver.Queries())
}

func TestScan_HiddenUnitsAreNotCollected(t *testing.T) {
	f := newScanFixture(t, "<p>testing</p><p hidden>quickly</p>", []string{"test", "quick"}, nil)

	result, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Units)
	assert.Equal(t, []string{"test"}, f.resolver.QueriedLemmas())
}

func TestScan_Disabled(t *testing.T) {
	f := newScanFixture(t, "<p>testing</p>", []string{"test"}, nil)
	f.scanner.SetEnabled(false)

	_, err := f.scanner.FullScan(context.Background())
	assert.True(t, errors.Is(err, internalErrors.ErrFeatureDisabled))
	assert.Equal(t, 0, f.registry.Len())

	f.scanner.SetEnabled(true)
	_, err = f.scanner.FullScan(context.Background())
	assert.NoError(t, err)
}

func TestCollect_DeduplicatesLemmas(t *testing.T) {
	f := newScanFixture(t, "", []string{"test"}, nil)

	c := f.scanner.Collect(testutil.Units("testing tests", "tested TESTING"))

	assert.Equal(t, []string{"test"}, c.LemmasToQuery)
	assert.Equal(t, 4, c.Candidates)
	assert.Equal(t, []string{"test"}, c.WordToLemma["testing"])
	assert.Len(t, c.WordToLemma, 3)
}

func TestScan_ConcurrentRequestDroppedAndWatchdogStops(t *testing.T) {
	f := newScanFixture(t, "<p>testing quickly</p>", []string{"test", "quick"}, nil)
	ctx := context.Background()

	_, err := f.scanner.FullScan(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, f.registry.Len())

	block := make(chan struct{})
	f.resolver.Block = block

	var wg sync.WaitGroup
	var stuckErr error
	var stuck Result
	wg.Add(1)
	go func() {
		defer wg.Done()
		stuck, stuckErr = f.scanner.FullScan(ctx)
	}()

	require.Eventually(t, func() bool { return len(f.resolver.Queries()) == 2 }, time.Second, time.Millisecond)
	assert.True(t, f.scanner.Processing())

	_, err = f.scanner.FullScan(ctx)
	assert.True(t, errors.Is(err, internalErrors.ErrScanInProgress), "second request is a no-op")
	assert.Len(t, f.resolver.Queries(), 2)
	assert.Equal(t, int64(1), f.scanner.Passes().GetMetrics().ScansDropped)

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(31 * time.Second)

	require.Eventually(t, func() bool {
		return !f.scanner.Processing() && f.registry.Len() == 0
	}, time.Second, time.Millisecond, "emergency stop clears the registry and releases the guard")

	close(block)
	wg.Wait()
	assert.True(t, errors.Is(stuckErr, internalErrors.ErrScanAborted))
	assert.Equal(t, 0, f.registry.Len(), "an aborted pass never renders")

	pass, err := f.scanner.Passes().GetPass(stuck.PassID)
	require.NoError(t, err)
	assert.Equal(t, model.PassStatusAborted, pass.Status)

	f.resolver.Block = nil
	_, err = f.scanner.FullScan(ctx)
	require.NoError(t, err, "guard is usable again")
	assert.Equal(t, 2, f.registry.Len())
}

type panicResolver struct{ *testutil.RecordingResolver }

func (panicResolver) QueryStatus(context.Context, []string) (map[string]model.LemmaStatusRecord, error) {
	panic("resolver exploded")
}

func TestScan_PanicTriggersEmergencyStop(t *testing.T) {
	f := newScanFixture(t, "<p>testing</p>", []string{"test"}, nil)
	_, err := f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.registry.Len())

	o := New(f.ds, nil, f.filter, panicResolver{testutil.NewRecordingResolver(nil)}, f.registry,
		Options{Clock: f.clock, Passes: f.scanner.Passes()})

	result, err := o.FullScan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolver exploded")
	assert.False(t, o.Processing())
	assert.Equal(t, 0, f.registry.Len())

	pass, perr := o.Passes().GetPass(result.PassID)
	require.NoError(t, perr)
	assert.Equal(t, model.PassStatusFailed, pass.Status)
}

func TestScan_CanceledContextAbortsBeforeQuery(t *testing.T) {
	f := newScanFixture(t, "<p>testing</p>", []string{"test"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.scanner.FullScan(ctx)
	require.ErrorIs(t, err, internalErrors.ErrScanAborted)
	assert.False(t, f.scanner.Processing(), "the guard is released")
	assert.Empty(t, f.resolver.Queries(), "no status query is issued")
	assert.Equal(t, 0, f.registry.Len())

	pass, perr := f.scanner.Passes().GetPass(result.PassID)
	require.NoError(t, perr)
	assert.Equal(t, model.PassStatusAborted, pass.Status)

	// The next pass runs normally.
	_, err = f.scanner.FullScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.registry.Len())
}

func TestGuard_ReleaseWithStaleToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired []model.PassKind
	g := NewGuard(clock, time.Second, func(kind model.PassKind, _ string) { fired = append(fired, kind) })

	first, ok := g.TryAcquire(model.PassKindFull)
	require.True(t, ok)
	_, ok = g.TryAcquire(model.PassKindIncremental)
	assert.False(t, ok)

	_, _, held := g.ForceRelease()
	assert.True(t, held)
	second, ok := g.TryAcquire(model.PassKindIncremental)
	require.True(t, ok)

	assert.False(t, g.Release(first), "a stale token cannot release a newer hold")
	assert.True(t, g.Holds(second))
	assert.True(t, g.Release(second))
	assert.False(t, g.Processing())

	clock.Advance(2 * time.Second)
	assert.Empty(t, fired, "released holds never trip the watchdog")
}
