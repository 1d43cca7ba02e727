package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-vocab-highlighter/internal/render"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// PointerRequest is a pointer position in document coordinates.
type PointerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClickRequest is a click with its modifier state.
type ClickRequest struct {
	PointerRequest
	model.Modifiers
}

// StatusRequest changes the status of a word family.
type StatusRequest struct {
	Word   string       `json:"word"`
	Lemmas []string     `json:"lemmas,omitempty"`
	Status model.Status `json:"status" binding:"required"`
}

// WordRequest names a single word.
type WordRequest struct {
	Word string `json:"word" binding:"required"`
}

// PointerMoveHandler updates the hover highlight.
func (api *API) PointerMoveHandler(c *gin.Context) {
	var req PointerRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidatePoint(req.X, req.Y); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	lemma := api.engine.PointerMove(req.X, req.Y)
	c.JSON(http.StatusOK, gin.H{"hovered_lemma": lemma})
}

// PointerClickHandler dispatches a click to the definition or translation path.
func (api *API) PointerClickHandler(c *gin.Context) {
	var req ClickRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidatePoint(req.X, req.Y); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result, err := api.engine.Click(c.Request.Context(), req.X, req.Y, req.Modifiers)
	if err != nil && result.Definition == nil && result.Translation == nil {
		SendEngineError(c, "click", err)
		return
	}

	response := gin.H{"result": result}
	if err != nil {
		// The card was produced but could not be shown.
		response["display_error"] = err.Error()
	}
	c.JSON(http.StatusOK, response)
}

// SetStatusHandler changes the status of a word family.
func (api *API) SetStatusHandler(c *gin.Context) {
	var req StatusRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateStatusRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.SetStatus(c.Request.Context(), req.Word, req.Lemmas, req.Status); err != nil {
		SendEngineError(c, "status update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Status of '" + req.Word + "' set to " + string(req.Status),
		"stats":   api.engine.Registry().Stats(),
	})
}

// ListIgnoredHandler returns the ignore list.
func (api *API) ListIgnoredHandler(c *gin.Context) {
	words := api.engine.Filter().IgnoredWords()
	c.JSON(http.StatusOK, gin.H{"words": words, "total": len(words)})
}

// IgnoreWordHandler adds a word to the ignore list.
func (api *API) IgnoreWordHandler(c *gin.Context) {
	var req WordRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateWord("word", req.Word); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.Ignore(c.Request.Context(), req.Word); err != nil {
		SendEngineError(c, "ignore list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Word '" + req.Word + "' ignored"})
}

// UnignoreWordHandler removes a word from the ignore list.
func (api *API) UnignoreWordHandler(c *gin.Context) {
	word := c.Param("word")
	if result := ValidateWord("word", word); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.Unignore(c.Request.Context(), word); err != nil {
		SendEngineError(c, "ignore list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Word '" + word + "' is no longer ignored"})
}

// GetDisplayHandler returns the cards shown since ?after=<seq>.
func (api *API) GetDisplayHandler(c *gin.Context) {
	cards, ok := api.engine.Display().(*render.CardLog)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported,
			"The configured display surface does not keep cards")
		return
	}

	var after uint64
	if raw := c.Query("after"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			result := &ValidationResult{Valid: true}
			result.AddError("after", "Must be a non-negative integer")
			SendValidationError(c, result)
			return
		}
		after = v
	}

	list := cards.Cards(after)
	c.JSON(http.StatusOK, gin.H{"cards": list, "total": len(list)})
}
