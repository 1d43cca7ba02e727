package interaction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/index"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/layout"
	"github.com/gcbaptista/go-vocab-highlighter/internal/render"
	"github.com/gcbaptista/go-vocab-highlighter/internal/scanner"
	testutil "github.com/gcbaptista/go-vocab-highlighter/internal/testing"
	"github.com/gcbaptista/go-vocab-highlighter/internal/vocab"
	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/store"
)

var (
	alt      = model.Modifiers{Alt: true}
	altShift = model.Modifiers{Alt: true, Shift: true}
)

type fixture struct {
	ds       *store.DocumentStore
	layout   *layout.Monospace
	recorder *render.Recorder
	registry *index.Registry
	filter   *vocab.Filter
	config   *testutil.ConfigStore
	resolver *testutil.RecordingResolver
	display  *testutil.RecordingDisplay
	layer    *Layer
}

func newFixture(t *testing.T, doc string, whitelist []string, statuses map[string]model.Status) *fixture {
	t.Helper()
	ds, err := store.NewDocumentStore(nil)
	require.NoError(t, err)
	_, err = ds.LoadHTML(strings.NewReader(doc))
	require.NoError(t, err)

	f := &fixture{
		ds:       ds,
		layout:   layout.NewMonospace(ds, 80, 8, 16),
		recorder: render.NewRecorder(0),
		config:   testutil.NewConfigStore(),
		resolver: testutil.NewRecordingResolver(statuses),
		display:  &testutil.RecordingDisplay{},
	}
	f.registry = index.NewRegistry(f.recorder, f.layout, index.Options{})
	f.filter = vocab.NewFilter(f.config, nil)
	f.filter.LoadWhitelist(whitelist)

	_, err = scanner.New(ds, nil, f.filter, f.resolver, f.registry, scanner.Options{}).FullScan(context.Background())
	require.NoError(t, err)

	f.layer = New(f.registry, f.layout, ds, nil, f.filter, f.resolver, f.display, Options{Settings: config.DefaultScanSettings()})
	return f
}

// at returns the centre of the cell at column offset on the first line.
func (f *fixture) at(offset int) (float64, float64) {
	return float64(offset)*8 + 4, 8
}

func TestPointerMove(t *testing.T) {
	f := newFixture(t, "<p>I am testing this.</p>", []string{"test"}, map[string]model.Status{"test": model.StatusLearning})

	assert.Equal(t, "test", f.layer.PointerMove(f.at(6)))
	assert.Len(t, f.recorder.Set(index.SetHover), 1)

	assert.Equal(t, "", f.layer.PointerMove(f.at(1)))
	assert.Empty(t, f.recorder.Set(index.SetHover))
}

func TestClick_WithoutModifierDoesNothing(t *testing.T) {
	f := newFixture(t, "<p>I am testing this.</p>", []string{"test"}, nil)
	x, y := f.at(6)

	res, err := f.layer.Click(context.Background(), x, y, model.Modifiers{})
	require.NoError(t, err)
	assert.Equal(t, PathNone, res.Path)
	assert.Empty(t, f.display.Definitions())
}

func TestClick_EntryPath(t *testing.T) {
	f := newFixture(t, "<p>I am testing this. Another one.</p>", []string{"test"},
		map[string]model.Status{"test": model.StatusLearning})
	x, y := f.at(6)
	queriesBefore := len(f.resolver.Queries())

	res, err := f.layer.Click(context.Background(), x, y, alt)
	require.NoError(t, err)
	f.layer.Wait()

	assert.Equal(t, PathEntry, res.Path)
	defs := f.display.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "test", defs[0].Word)
	assert.Equal(t, []string{"test"}, defs[0].Lemmas)
	assert.Equal(t, model.StatusLearning, defs[0].Status)
	assert.Equal(t, "I am testing this.", defs[0].Sentence)
	assert.Equal(t, []string{"test"}, f.resolver.Bumps())
	assert.Len(t, f.resolver.Queries(), queriesBefore, "the entry path needs no status query")
}

func TestClick_KnownEntryIsDefinedWithoutBump(t *testing.T) {
	f := newFixture(t, "<p>I am testing this.</p>", []string{"test"}, map[string]model.Status{"test": model.StatusKnown})
	x, y := f.at(6)

	res, err := f.layer.Define(context.Background(), x, y)
	require.NoError(t, err)
	f.layer.Wait()

	assert.Equal(t, PathEntry, res.Path)
	assert.Equal(t, model.StatusKnown, res.Definition.Status)
	assert.Empty(t, f.resolver.Bumps())
}

func TestClick_FallbackPath(t *testing.T) {
	f := newFixture(t, "<p>I am testing zebras.</p>", []string{"test"},
		map[string]model.Status{"zebra": model.StatusKnown})
	x, y := f.at(15)

	res, err := f.layer.Click(context.Background(), x, y, alt)
	require.NoError(t, err)

	assert.Equal(t, PathFallback, res.Path)
	require.NotNil(t, res.Definition)
	assert.Equal(t, "zebra", res.Definition.Word)
	assert.Equal(t, []string{"zebra"}, res.Definition.Lemmas)
	assert.Equal(t, model.StatusKnown, res.Definition.Status)
	assert.Empty(t, res.Definition.Error)
	assert.Equal(t, "I am testing zebras.", res.Definition.Sentence)
	queries := f.resolver.Queries()
	assert.Equal(t, []string{"zebra"}, queries[len(queries)-1])
}

func TestClick_FallbackUnknownWithoutRecord(t *testing.T) {
	f := newFixture(t, "<p>I am testing zebras.</p>", []string{"test"}, nil)
	x, y := f.at(15)

	res, err := f.layer.Define(context.Background(), x, y)
	require.NoError(t, err)
	assert.Equal(t, PathFallback, res.Path)
	assert.Equal(t, "zebras", res.Definition.Word)
	assert.Equal(t, model.StatusUnknown, res.Definition.Status)
	assert.Equal(t, "zebra", res.Definition.FamilyRoot)
}

func TestClick_FallbackRejectsNonWords(t *testing.T) {
	f := newFixture(t, "<p>Call 2024 now ...</p>", []string{"call"}, nil)

	for _, offset := range []int{6, 15} {
		x, y := f.at(offset)
		res, err := f.layer.Define(context.Background(), x, y)
		require.NoError(t, err)
		assert.Equal(t, PathNone, res.Path, "offset %d", offset)
	}
	assert.Empty(t, f.display.Definitions())
}

func TestClick_FallbackIgnoredSkipsRemote(t *testing.T) {
	f := newFixture(t, "<p>I am testing these.</p>", []string{"test"}, nil)
	require.NoError(t, f.filter.AddIgnoredWord(context.Background(), "these"))
	queriesBefore := len(f.resolver.Queries())
	x, y := f.at(15)

	res, err := f.layer.Define(context.Background(), x, y)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIgnored, res.Definition.Status)
	assert.Len(t, f.resolver.Queries(), queriesBefore)
}

func TestClick_FallbackFailureStillShowsCard(t *testing.T) {
	f := newFixture(t, "<p>I am testing these.</p>", []string{"test"}, nil)
	f.resolver.Err = errors.New("offline")
	x, y := f.at(15)

	res, err := f.layer.Define(context.Background(), x, y)
	require.NoError(t, err)
	require.Len(t, f.display.Definitions(), 1)
	assert.NotEmpty(t, res.Definition.Error)
	assert.Equal(t, model.StatusUnknown, res.Definition.Status)
}

func TestClick_Translation(t *testing.T) {
	f := newFixture(t, "<p>Dr. Smith is <b>testing</b> this. He likes it!</p>", []string{"test"}, nil)
	x, y := f.at(14)

	res, err := f.layer.Click(context.Background(), x, y, altShift)
	require.NoError(t, err)

	assert.Equal(t, PathTranslation, res.Path)
	reqs := f.display.Translations()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Dr. Smith is testing this. He likes it!", reqs[0].Paragraph)
	assert.Equal(t, "Dr. Smith is testing this.", reqs[0].Sentence)
	assert.True(t, reqs[0].Streaming)
	assert.Empty(t, f.display.Definitions())
}

func TestSetStatus_UpdatesExistingEntries(t *testing.T) {
	f := newFixture(t, "<p>testing tested</p>", []string{"test"}, nil)

	require.NoError(t, f.layer.SetStatus(context.Background(), "testing", []string{"test"}, model.StatusLearning))

	assert.Equal(t, []string{"test"}, f.resolver.Updates())
	assert.Len(t, f.recorder.Set(index.SetLearning), 2)
	assert.Empty(t, f.recorder.Set(index.SetUnknown))
}

func TestSetStatus_AnchorsFallbackLookup(t *testing.T) {
	f := newFixture(t, "<p>I am testing zebras.</p>", []string{"test"}, map[string]model.Status{"zebra": model.StatusKnown})
	x, y := f.at(15)
	res, err := f.layer.Define(context.Background(), x, y)
	require.NoError(t, err)
	require.Equal(t, 1, f.registry.Len())

	require.NoError(t, f.layer.SetStatus(context.Background(), "zebras", res.Definition.Lemmas, model.StatusLearning))

	require.Equal(t, 2, f.registry.Len())
	added := f.registry.EntriesForLemma("zebra")
	require.Len(t, added, 1)
	assert.Equal(t, model.StatusLearning, added[0].Status)
	assert.Equal(t, model.Anchor{Unit: f.ds.Units()[0].ID, Start: 13, End: 19}, added[0].Occurrence.Anchor)
	assert.Len(t, f.recorder.Set(index.SetLearning), 1)
}

func TestSetStatus_LocatesLiteralWithoutLookup(t *testing.T) {
	f := newFixture(t, "<p>I am testing.</p><p>Zebras run.</p>", []string{"test"}, nil)

	require.NoError(t, f.layer.SetStatus(context.Background(), "zebras", nil, model.StatusUnknown))

	added := f.registry.EntriesForLemma("zebra")
	require.Len(t, added, 1)
	assert.Equal(t, "Zebras", added[0].Occurrence.OriginalText)
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, "<p>testing</p>", []string{"test"}, nil)

	err := f.layer.SetStatus(context.Background(), "testing", nil, model.Status("mastered"))
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
	assert.Empty(t, f.resolver.Updates())
}

func TestIgnore(t *testing.T) {
	f := newFixture(t, "<p>quickly, quickly runs</p>", []string{"quick", "run"}, nil)
	require.Equal(t, 3, f.registry.Len())

	require.NoError(t, f.layer.SetStatus(context.Background(), "quickly", nil, model.StatusIgnored))

	assert.Equal(t, 1, f.registry.Len())
	assert.True(t, f.filter.IsIgnoredWord("quickly"))
	assert.Contains(t, f.config.Get().IgnoredWords, "quickly")

	require.NoError(t, f.layer.Unignore(context.Background(), "quickly"))
	assert.False(t, f.filter.IsIgnoredWord("quickly"))
}

func TestIgnore_PersistenceFailureKeepsEntries(t *testing.T) {
	f := newFixture(t, "<p>quickly runs</p>", []string{"quick", "run"}, nil)
	f.config.Err = errors.New("disk full")

	err := f.layer.Ignore(context.Background(), "quickly")
	assert.True(t, errors.Is(err, internalErrors.ErrPersistence))
	assert.Equal(t, 2, f.registry.Len())
	assert.False(t, f.filter.IsIgnoredWord("quickly"))
}

func TestLocateLiteral(t *testing.T) {
	f := newFixture(t, "<p>nothing here</p><p>The gridLayout's Zebra.</p>", nil, nil)

	anchor, original, ok := f.layer.LocateLiteral("zebra")
	require.True(t, ok)
	assert.Equal(t, "Zebra", original)
	assert.Equal(t, f.ds.Units()[1].ID, anchor.Unit)

	_, _, ok = f.layer.LocateLiteral("absent")
	assert.False(t, ok)
	_, _, ok = f.layer.LocateLiteral("  ")
	assert.False(t, ok)
}
