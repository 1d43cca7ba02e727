package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// GetPassHandler handles requests to get a scan pass by ID
func (api *API) GetPassHandler(c *gin.Context) {
	passID := c.Param("passId")

	pass, err := api.engine.GetPass(passID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrPassNotFound) {
			SendPassNotFoundError(c, passID)
			return
		}
		SendInternalError(c, "pass lookup", err)
		return
	}

	c.JSON(http.StatusOK, pass)
}

// ListPassesHandler lists tracked passes, filtered by ?kind= and ?status=
func (api *API) ListPassesHandler(c *gin.Context) {
	var kindFilter *model.PassKind
	if raw := c.Query("kind"); raw != "" {
		kind := model.PassKind(raw)
		kindFilter = &kind
	}

	var statusFilter *model.PassStatus
	if raw := c.Query("status"); raw != "" {
		status := model.PassStatus(raw)
		statusFilter = &status
	}

	passes := api.engine.ListPasses(kindFilter, statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"passes": passes,
		"total":  len(passes),
	})
}

// GetPassMetricsHandler handles requests to get scan pass metrics
func (api *API) GetPassMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":      api.engine.Metrics(),
		"success_rate": api.engine.Passes().GetPassSuccessRate(),
		"processing":   api.engine.Scanner().Processing(),
		"watcher":      api.engine.Watcher().Stats(),
	})
}
