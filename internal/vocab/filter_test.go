package vocab

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	testutil "github.com/gcbaptista/go-vocab-highlighter/internal/testing"
)

func TestFilter_IsValidWord(t *testing.T) {
	f := NewFilter(nil, nil)

	// Degraded mode: no whitelist loaded.
	assert.False(t, f.HasWhitelist())
	assert.True(t, f.IsValidWord("anything"))
	assert.False(t, f.IsValidWord("don't"), "contraction negatives are never vocabulary")

	f.LoadWhitelist([]string{"Test", "quick", "run"})
	assert.True(t, f.HasWhitelist())
	assert.Equal(t, 3, f.WhitelistSize())

	tests := []struct {
		word string
		want bool
	}{
		{"test", true},
		{"TEST", true},
		{"quick", true},
		{"testing", false},
		{"unknown", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsValidWord(tt.word))
		})
	}
}

func TestFilter_EmptyWhitelistIsNotDegraded(t *testing.T) {
	f := NewFilter(nil, nil)
	f.LoadWhitelist([]string{})

	assert.True(t, f.HasWhitelist())
	assert.False(t, f.IsValidWord("anything"))
}

func TestFilter_IgnoreBeatsWhitelist(t *testing.T) {
	ctx := context.Background()
	f := NewFilter(nil, nil)
	f.LoadWhitelist([]string{"quick"})

	require.NoError(t, f.AddIgnoredWord(ctx, "Quick"))
	assert.True(t, f.IsIgnoredWord("quick"))
	assert.False(t, f.IsValidWord("quick"))
	assert.True(t, f.InWhitelist("quick"), "lexicon membership ignores the ignore set")

	require.NoError(t, f.RemoveIgnoredWord(ctx, "quick"))
	assert.True(t, f.IsValidWord("quick"))
}

func TestFilter_EligibleLemmas(t *testing.T) {
	ctx := context.Background()
	f := NewFilter(nil, nil)
	f.LoadWhitelist([]string{"test", "quick", "run"})
	require.NoError(t, f.AddIgnoredWord(ctx, "quickly"))

	tests := []struct {
		name    string
		surface string
		lemmas  []string
		want    []string
	}{
		{"lemma on whitelist", "testing", []string{"test"}, []string{"test"}},
		{"only eligible lemmas kept", "runs", []string{"running", "run"}, []string{"run"}},
		{"surface ignored", "quickly", []string{"quick"}, nil},
		{"no lemma on whitelist", "this", []string{"this"}, nil},
		{"contraction", "Don’t", []string{"don't"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.EligibleLemmas(tt.surface, tt.lemmas))
		})
	}

	require.NoError(t, f.AddIgnoredWord(ctx, "test"))
	assert.Nil(t, f.EligibleLemmas("tested", []string{"test"}), "an ignored lemma suppresses the occurrence")
}

func TestFilter_IgnorePersistsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewConfigStore()
	f := NewFilter(store, nil)

	require.NoError(t, f.AddIgnoredWord(ctx, "slowly"))
	require.NoError(t, f.AddIgnoredWord(ctx, "quickly"))
	assert.Equal(t, []string{"quickly", "slowly"}, store.Get().IgnoredWords)

	require.NoError(t, f.RemoveIgnoredWord(ctx, "slowly"))
	assert.Equal(t, []string{"quickly"}, store.Get().IgnoredWords)

	// A fresh filter picks up the persisted list.
	again := NewFilter(store, nil)
	assert.True(t, again.IsIgnoredWord("quickly"))
}

func TestFilter_IgnoreRollbackOnPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewConfigStore()
	f := NewFilter(store, nil)
	require.NoError(t, f.AddIgnoredWord(ctx, "kept"))

	store.Err = errors.New("quota exceeded")

	err := f.AddIgnoredWord(ctx, "quickly")
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalErrors.ErrPersistence))
	assert.False(t, f.IsIgnoredWord("quickly"), "failed add must be rolled back")

	err = f.RemoveIgnoredWord(ctx, "kept")
	require.Error(t, err)
	assert.True(t, f.IsIgnoredWord("kept"), "failed removal must be rolled back")

	store.Err = nil
	assert.Equal(t, []string{"kept"}, store.Get().IgnoredWords)
	assert.Equal(t, []string{"kept"}, f.IgnoredWords())
}

func TestFilter_AddIgnoredWordRejectsEmpty(t *testing.T) {
	f := NewFilter(nil, nil)
	err := f.AddIgnoredWord(context.Background(), "   ")
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
}

func TestFilter_SetIgnoredReturnsNewWords(t *testing.T) {
	f := NewFilter(nil, nil)
	assert.Equal(t, []string{"alpha", "beta"}, f.SetIgnored([]string{"beta", "Alpha"}))
	assert.Equal(t, []string{"gamma"}, f.SetIgnored([]string{"alpha", "gamma"}))
	assert.Equal(t, []string{"alpha", "gamma"}, f.IgnoredWords())
}

func TestIsAbbreviationFilterWord(t *testing.T) {
	for _, w := range []string{"don't", "Don’t", "CAN'T", "won’t", "shouldn't"} {
		assert.True(t, IsAbbreviationFilterWord(w), w)
	}
	for _, w := range []string{"dont", "it's", "test"} {
		assert.False(t, IsAbbreviationFilterWord(w), w)
	}
}

func TestLoadWhitelistFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    int
	}{
		{"plain text", "words.txt", "# study list\ntest quick\nrun # verb\n\n", 3},
		{"yaml list", "words.yaml", "- test\n- quick\n", 2},
		{"yaml mapping", "words.yml", "words:\n  - test\n  - quick\n  - run\n  - slow\n", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			f := NewFilter(nil, nil)
			require.NoError(t, f.LoadWhitelistFile(path))
			assert.Equal(t, tt.want, f.WhitelistSize())
			assert.True(t, f.IsValidWord("test"))
		})
	}

	f := NewFilter(nil, nil)
	err := f.LoadWhitelistFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
	assert.False(t, f.HasWhitelist())
}

func TestParseWhitelistYAML_RejectsScalar(t *testing.T) {
	_, err := ParseWhitelistYAML([]byte("just a string"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "list"))
}
