package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-vocab-highlighter/internal/configstore"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// LearnerSettingsUpdate defines the structure for updating learner settings.
// Absent fields are left untouched; the ignore list has its own routes.
type LearnerSettingsUpdate struct {
	Enabled          *bool          `json:"enabled,omitempty"`
	HighlightEnabled *bool          `json:"highlight_enabled,omitempty"`
	EnabledSites     *[]string      `json:"enabled_sites,omitempty"`  // Send an empty list to clear
	DisabledSites    *[]string      `json:"disabled_sites,omitempty"` // Send an empty list to clear
	Palette          *model.Palette `json:"palette,omitempty"`        // Merged into the current palette
}

// GetSettingsHandler returns the learner settings.
func (api *API) GetSettingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings": api.engine.Config().Get(),
		"active":   api.engine.Active(),
	})
}

// UpdateSettingsHandler applies a partial learner settings update. The engine
// reacts through the configuration change feed.
func (api *API) UpdateSettingsHandler(c *gin.Context) {
	store, ok := api.engine.Config().(*configstore.Store)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported,
			"The configured settings store cannot be updated over HTTP")
		return
	}

	var req LearnerSettingsUpdate
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateSettingsUpdate(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	ctx := c.Request.Context()
	updated := false

	if req.Palette != nil {
		if err := store.SetPalette(ctx, *req.Palette); err != nil {
			SendEngineError(c, "settings update", err)
			return
		}
		updated = true
	}

	if req.EnabledSites != nil || req.DisabledSites != nil {
		current := store.Get()
		enabled, disabled := current.EnabledSites, current.DisabledSites
		if req.EnabledSites != nil {
			enabled = *req.EnabledSites
		}
		if req.DisabledSites != nil {
			disabled = *req.DisabledSites
		}
		if err := store.SetSiteLists(ctx, enabled, disabled); err != nil {
			SendEngineError(c, "settings update", err)
			return
		}
		updated = true
	}

	if req.HighlightEnabled != nil {
		if err := store.SetHighlightEnabled(ctx, *req.HighlightEnabled); err != nil {
			SendEngineError(c, "settings update", err)
			return
		}
		updated = true
	}

	if req.Enabled != nil {
		if err := store.SetEnabled(ctx, *req.Enabled); err != nil {
			SendEngineError(c, "settings update", err)
			return
		}
		updated = true
	}

	if !updated {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "No valid updatable fields provided")
		return
	}

	api.logger.Info("Learner settings updated", "request_id", c.GetString(requestIDKey))
	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": store.Get(),
	})
}
