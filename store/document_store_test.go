package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

const page = `<!DOCTYPE html>
<html>
<head><title>ignored</title><style>p { color: red }</style></head>
<body>
  <p>I am <b>testing</b> this.</p>
  <script>var x = "never scanned";</script>
  <div hidden>secret words</div>
  <div class="caption-window" id="cc"><span>quickly runs</span></div>
  <p style="display: none">invisible</p>
</body>
</html>`

func newStore(t *testing.T) *DocumentStore {
	t.Helper()
	ds, err := NewDocumentStore(config.DefaultHighFrequencySelectors)
	require.NoError(t, err)
	return ds
}

func texts(units []model.ContentUnit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Text)
	}
	return out
}

func TestDocumentStore_LoadHTML(t *testing.T) {
	ds := newStore(t)

	batch, err := ds.LoadHTML(strings.NewReader(page))
	require.NoError(t, err)

	units := ds.Units()
	assert.Equal(t, []string{"I am ", "testing", " this.", "secret words", "quickly runs", "invisible"}, texts(units))
	assert.Len(t, batch.Added, len(units))
	assert.Empty(t, batch.Removed)

	// The three text nodes of the first paragraph share a block.
	assert.Equal(t, units[0].Block, units[1].Block)
	assert.Equal(t, units[1].Block, units[2].Block)
	assert.Equal(t, "b", units[1].Tag)
	assert.Equal(t, "I am testing this.", ds.BlockText(units[0].Block))

	assert.True(t, units[3].Hidden)
	assert.True(t, units[5].Hidden)
	assert.False(t, units[0].Hidden)

	caption := units[4]
	assert.True(t, caption.HighFrequency)
	assert.Equal(t, "#cc", caption.Container)
	assert.Equal(t, []string{"#cc"}, ds.Containers())
	assert.Len(t, ds.UnitsInContainer("#cc"), 1)
	assert.Empty(t, ds.UnitsInContainer(""))
}

func TestDocumentStore_ReloadReportsRemovedUnits(t *testing.T) {
	ds := newStore(t)
	first, err := ds.LoadHTML(strings.NewReader("<p>one</p><p>two</p>"))
	require.NoError(t, err)

	second, err := ds.LoadHTML(strings.NewReader("<p>three</p>"))
	require.NoError(t, err)

	assert.Len(t, second.Removed, len(first.Added))
	assert.Equal(t, []string{"three"}, texts(ds.Units()))
}

func TestDocumentStore_Mutations(t *testing.T) {
	ds := newStore(t)
	_, err := ds.LoadHTML(strings.NewReader(page))
	require.NoError(t, err)
	v := ds.Version()

	t.Run("append html", func(t *testing.T) {
		batch, err := ds.AppendHTML(strings.NewReader("<p>quickly runs</p>"))
		require.NoError(t, err)
		require.Len(t, batch.Added, 1)
		assert.False(t, batch.Added[0].HighFrequency)
		assert.Greater(t, ds.Version(), v)
	})

	t.Run("append text to new block", func(t *testing.T) {
		batch, err := ds.AppendText(0, "fresh words")
		require.NoError(t, err)
		require.Len(t, batch.Added, 1)
		u, ok := ds.Unit(batch.Added[0].ID)
		require.True(t, ok)
		assert.Equal(t, "fresh words", u.Text)
	})

	t.Run("replace text is a free-text change", func(t *testing.T) {
		first := ds.Units()[0]
		batch, err := ds.ReplaceText(first.ID, "You are ")
		require.NoError(t, err)
		assert.True(t, batch.FreeTextChanged)
		assert.Equal(t, []model.UnitID{first.ID}, batch.Changed)
	})

	t.Run("replace text inside a caption is not", func(t *testing.T) {
		caption := ds.UnitsInContainer("#cc")[0]
		batch, err := ds.ReplaceText(caption.ID, "slowly walks")
		require.NoError(t, err)
		assert.False(t, batch.FreeTextChanged)
	})

	t.Run("replace text of unknown unit", func(t *testing.T) {
		_, err := ds.ReplaceText(9999, "x")
		assert.True(t, errors.Is(err, internalErrors.ErrUnitNotFound))
	})

	t.Run("replace container keeps position", func(t *testing.T) {
		before := ds.UnitsInContainer("#cc")
		batch, err := ds.ReplaceContainer("#cc", strings.NewReader("<span>new cue</span> <span>text</span>"))
		require.NoError(t, err)
		assert.Len(t, batch.Removed, len(before))
		assert.Equal(t, []string{"new cue", "text"}, texts(ds.UnitsInContainer("#cc")))
		for _, u := range batch.Added {
			assert.True(t, u.HighFrequency)
			assert.Equal(t, before[0].Block, u.Block)
		}

		all := texts(ds.Units())
		assert.Equal(t, "new cue", all[4], "cue text replaces the old cue in document order")
	})

	t.Run("replace empty container", func(t *testing.T) {
		_, err := ds.ReplaceContainer("#cc", strings.NewReader(" "))
		require.NoError(t, err)
		assert.Empty(t, ds.UnitsInContainer("#cc"))

		_, err = ds.ReplaceContainer("#cc", strings.NewReader("<span>back</span>"))
		require.NoError(t, err)
		assert.Equal(t, []string{"back"}, texts(ds.UnitsInContainer("#cc")))
	})

	t.Run("replace unknown container", func(t *testing.T) {
		_, err := ds.ReplaceContainer("#nope", strings.NewReader("x"))
		assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
	})

	t.Run("remove", func(t *testing.T) {
		n := ds.Len()
		first := ds.Units()[0]
		batch := ds.Remove(first.ID, first.ID, 424242)
		assert.Equal(t, []model.UnitID{first.ID}, batch.Removed)
		assert.Equal(t, n-1, ds.Len())
		_, ok := ds.Unit(first.ID)
		assert.False(t, ok)

		assert.True(t, ds.Remove(424242).Empty())
	})

	t.Run("set hidden", func(t *testing.T) {
		u := ds.Units()[0]
		batch, err := ds.SetHidden(u.ID, true)
		require.NoError(t, err)
		assert.Equal(t, []model.UnitID{u.ID}, batch.Changed)
		got, _ := ds.Unit(u.ID)
		assert.True(t, got.Hidden)
	})
}

func TestNewDocumentStore_InvalidSelector(t *testing.T) {
	_, err := NewDocumentStore([]string{"[[["})
	assert.Error(t, err)
}
