package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gcbaptista/go-vocab-highlighter/index"
	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/internal/interaction"
	"github.com/gcbaptista/go-vocab-highlighter/internal/jobs"
	"github.com/gcbaptista/go-vocab-highlighter/internal/scanner"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// LoadHTML replaces the document and runs the initial full scan. The scan is
// skipped while highlighting is inactive for the site.
func (e *Engine) LoadHTML(ctx context.Context, r io.Reader) (scanner.Result, error) {
	batch, err := e.store.LoadHTML(r)
	if err != nil {
		return scanner.Result{}, internalErrors.NewValidationError("html", err.Error())
	}
	e.registry.Clear()
	e.logger.Info("document loaded",
		slog.Int("units", len(batch.Added)),
		slog.Int("replaced", len(batch.Removed)))

	if !e.Active() {
		return scanner.Result{Kind: model.PassKindFull}, nil
	}
	return e.scanner.FullScan(ctx)
}

// Scan runs a full scan of the current document.
func (e *Engine) Scan(ctx context.Context) (scanner.Result, error) {
	return e.scanner.FullScan(ctx)
}

// ApplyMutation edits the document and publishes the resulting change batch
// to the watcher. Hiding detaches the unit's entries at once; revealing it
// is reported as an addition so the unit gets scanned.
func (e *Engine) ApplyMutation(m model.Mutation) (model.ChangeBatch, error) {
	var (
		batch model.ChangeBatch
		err   error
	)
	switch m.Op {
	case model.MutationAppendHTML:
		batch, err = e.store.AppendHTML(strings.NewReader(m.HTML))
	case model.MutationAppendText:
		if m.Block == 0 {
			return batch, internalErrors.NewValidationError("block", "is required for append_text")
		}
		batch, err = e.store.AppendText(m.Block, m.Text)
	case model.MutationReplaceText:
		if m.Unit == 0 {
			return batch, internalErrors.NewValidationError("unit", "is required for replace_text")
		}
		batch, err = e.store.ReplaceText(m.Unit, m.Text)
	case model.MutationReplaceContainer:
		if strings.TrimSpace(m.Container) == "" {
			return batch, internalErrors.NewValidationError("container", "is required for replace_container")
		}
		batch, err = e.store.ReplaceContainer(m.Container, strings.NewReader(m.HTML))
	case model.MutationRemove:
		ids := m.Units
		if m.Unit != 0 {
			ids = append(ids, m.Unit)
		}
		if len(ids) == 0 {
			return batch, internalErrors.NewValidationError("units", "at least one unit is required for remove")
		}
		batch = e.store.Remove(ids...)
	case model.MutationSetHidden:
		if m.Unit == 0 {
			return batch, internalErrors.NewValidationError("unit", "is required for set_hidden")
		}
		batch, err = e.setHidden(m.Unit, m.Hidden)
	default:
		return batch, internalErrors.NewValidationError("op", fmt.Sprintf("unknown mutation '%s'", m.Op))
	}
	if err != nil {
		return batch, err
	}

	e.mutations.Publish(batch)
	return batch, nil
}

func (e *Engine) setHidden(id model.UnitID, hidden bool) (model.ChangeBatch, error) {
	batch, err := e.store.SetHidden(id, hidden)
	if err != nil {
		return batch, err
	}
	if len(batch.Changed) == 0 {
		return batch, nil
	}
	if hidden {
		n := e.registry.DetachUnits([]model.UnitID{id})
		e.logger.Debug("unit hidden", slog.Int("unit", int(id)), slog.Int("detached", n))
		return model.ChangeBatch{}, nil
	}
	u, ok := e.store.Unit(id)
	if !ok {
		return model.ChangeBatch{}, nil
	}
	return model.ChangeBatch{Added: []model.ContentUnit{u}}, nil
}

// Highlights returns a copy of the registry state.
func (e *Engine) Highlights() index.Snapshot {
	return e.registry.Snapshot()
}

// PointerMove forwards a pointer position to the interaction layer.
func (e *Engine) PointerMove(x, y float64) string {
	return e.interaction.PointerMove(x, y)
}

// Click forwards a click to the interaction layer.
func (e *Engine) Click(ctx context.Context, x, y float64, mods model.Modifiers) (interaction.ClickResult, error) {
	if !e.Active() {
		return interaction.ClickResult{Path: interaction.PathNone}, internalErrors.ErrFeatureDisabled
	}
	return e.interaction.Click(ctx, x, y, mods)
}

// SetStatus changes the status of a word family.
func (e *Engine) SetStatus(ctx context.Context, word string, lemmas []string, status model.Status) error {
	return e.interaction.SetStatus(ctx, word, lemmas, status)
}

// Ignore adds word to the ignore list.
func (e *Engine) Ignore(ctx context.Context, word string) error {
	return e.interaction.Ignore(ctx, word)
}

// Unignore removes word from the ignore list and rescans so its occurrences
// come back.
func (e *Engine) Unignore(ctx context.Context, word string) error {
	if err := e.interaction.Unignore(ctx, word); err != nil {
		return err
	}
	if e.Active() {
		e.rescan(ctx, "unignore")
	}
	return nil
}

// GetPass returns a scan pass by ID.
func (e *Engine) GetPass(id string) (*model.ScanPass, error) {
	return e.passes.GetPass(id)
}

// ListPasses returns the tracked passes, optionally filtered.
func (e *Engine) ListPasses(kind *model.PassKind, status *model.PassStatus) []*model.ScanPass {
	return e.passes.ListPasses(kind, status)
}

// Metrics returns pass counters.
func (e *Engine) Metrics() jobs.PassMetricsData {
	return e.passes.GetMetrics()
}
