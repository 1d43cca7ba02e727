package engine

import (
	"context"
	"errors"
	"log/slog"

	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// HandleConfigChange applies one learner configuration change to the running
// engine.
func (e *Engine) HandleConfigChange(ctx context.Context, change services.ConfigChange) {
	settings := change.Settings

	if change.Has(services.ConfigKeyPalette) {
		e.registry.SetPalette(settings.Palette)
		e.logger.Debug("palette applied")
	}

	rescan := false
	if change.Has(services.ConfigKeyIgnoredWords) {
		before := len(e.filter.IgnoredWords())
		added := e.filter.SetIgnored(settings.IgnoredWords)
		removed := 0
		for _, word := range added {
			removed += e.registry.RemoveByWord(word)
		}
		// Words leaving the list can only come back through a scan.
		if before+len(added) > len(e.filter.IgnoredWords()) {
			rescan = true
		}
		e.logger.Debug("ignore list applied",
			slog.Int("added", len(added)),
			slog.Int("entries_removed", removed))
	}

	if change.Has(services.ConfigKeyEnabled) || change.Has(services.ConfigKeyHighlightEnabled) || change.Has(services.ConfigKeySiteLists) {
		active := settings.Active(e.site)
		e.mu.Lock()
		was := e.active
		e.active = active
		e.mu.Unlock()

		switch {
		case was && !active:
			e.scanner.SetEnabled(false)
			e.registry.Clear()
			e.logger.Info("highlighting deactivated", slog.String("site", e.site))
			return
		case !was && active:
			e.scanner.SetEnabled(true)
			e.logger.Info("highlighting activated", slog.String("site", e.site))
			rescan = true
		}
	}

	if rescan && e.Active() {
		e.rescan(ctx, "config_change")
	}
}

// rescan runs a full scan and logs the outcome. A pass already in flight
// makes the request a no-op.
func (e *Engine) rescan(ctx context.Context, reason string) {
	res, err := e.scanner.FullScan(ctx)
	switch {
	case err == nil:
		e.logger.Debug("full rescan finished",
			slog.String("reason", reason),
			slog.String("pass_id", res.PassID),
			slog.Int("entries", res.Render.Created))
	case errors.Is(err, internalErrors.ErrScanInProgress):
		e.logger.Debug("full rescan skipped, pass in flight", slog.String("reason", reason))
	default:
		e.logger.Warn("full rescan failed", slog.String("reason", reason), slog.String("error", err.Error()))
	}
}
