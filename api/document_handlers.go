package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// LoadDocumentRequest carries the HTML of a new document.
type LoadDocumentRequest struct {
	HTML string `json:"html" binding:"required"`
}

// MutationsRequest is a batch of document edits applied in order.
type MutationsRequest struct {
	Mutations []model.Mutation `json:"mutations" binding:"required,dive"`
}

// LoadDocumentHandler replaces the document and runs the initial full scan.
// Accepts either a JSON body {"html": "..."} or a raw text/html body.
func (api *API) LoadDocumentHandler(c *gin.Context) {
	var html string
	if strings.HasPrefix(c.ContentType(), "text/html") {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Failed to read request body: "+err.Error())
			return
		}
		html = string(body)
	} else {
		var req LoadDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			SendInvalidJSONError(c, err)
			return
		}
		html = req.HTML
	}

	result, err := api.engine.LoadHTML(c.Request.Context(), strings.NewReader(html))
	if err != nil {
		SendEngineError(c, "document load", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"units": api.engine.Store().Len(),
		"scan":  result,
	})
}

// ApplyMutationsHandler applies document edits. Scans follow asynchronously
// through the change feed.
func (api *API) ApplyMutationsHandler(c *gin.Context) {
	var req MutationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateMutations(req.Mutations); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	batches := make([]model.ChangeBatch, 0, len(req.Mutations))
	for _, m := range req.Mutations {
		batch, err := api.engine.ApplyMutation(m)
		if err != nil {
			SendEngineError(c, "mutation "+string(m.Op), err)
			return
		}
		batches = append(batches, batch)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"batches": batches,
	})
}

// ScanHandler runs a full rescan.
func (api *API) ScanHandler(c *gin.Context) {
	result, err := api.engine.Scan(c.Request.Context())
	if err != nil {
		SendEngineError(c, "scan", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHighlightsHandler returns the registry snapshot.
func (api *API) GetHighlightsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"highlights": api.engine.Highlights(),
		"stats":      api.engine.Registry().Stats(),
	})
}
