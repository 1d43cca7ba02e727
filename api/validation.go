// Package api provides the HTTP surface of the headless highlighter host.
package api

import (
	"fmt"
	"math"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateWord validates a word parameter
func ValidateWord(field, word string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(word) == "" {
		result.AddError(field, "Word is required")
		return result
	}

	if strings.ContainsAny(word, " \t\n") {
		result.AddError(field, "Word cannot contain whitespace")
	}

	return result
}

// ValidatePoint validates pointer coordinates
func ValidatePoint(x, y float64) *ValidationResult {
	result := &ValidationResult{Valid: true}

	check := func(field string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			result.AddError(field, "Coordinate must be a finite number")
		} else if v < 0 {
			result.AddError(field, "Coordinate cannot be negative")
		}
	}
	check("x", x)
	check("y", y)

	return result
}

// ValidateStatusRequest validates a status change request
func ValidateStatusRequest(req *StatusRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req == nil {
		result.AddError("request_body", "Status request is required")
		return result
	}

	if strings.TrimSpace(req.Word) == "" && len(req.Lemmas) == 0 {
		result.AddError("word", "Either word or lemmas must be provided")
	}

	if _, ok := model.ParseStatus(string(req.Status)); !ok {
		result.AddError("status", fmt.Sprintf("Unknown status '%s'", req.Status))
	}

	for i, l := range req.Lemmas {
		if strings.TrimSpace(l) == "" {
			result.AddError(fmt.Sprintf("lemmas[%d]", i), "Lemma cannot be empty")
		}
	}

	return result
}

// ValidateMutations validates a batch of document mutations
func ValidateMutations(mutations []model.Mutation) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(mutations) == 0 {
		result.AddError("mutations", "No mutations provided")
		return result
	}

	for i, m := range mutations {
		field := fmt.Sprintf("mutations[%d]", i)
		switch m.Op {
		case model.MutationAppendHTML:
			if strings.TrimSpace(m.HTML) == "" {
				result.AddError(field+".html", "HTML is required for append_html")
			}
		case model.MutationAppendText:
			if m.Block == 0 {
				result.AddError(field+".block", "Block is required for append_text")
			}
		case model.MutationReplaceText, model.MutationSetHidden:
			if m.Unit == 0 {
				result.AddError(field+".unit", fmt.Sprintf("Unit is required for %s", m.Op))
			}
		case model.MutationReplaceContainer:
			if strings.TrimSpace(m.Container) == "" {
				result.AddError(field+".container", "Container is required for replace_container")
			}
		case model.MutationRemove:
			if m.Unit == 0 && len(m.Units) == 0 {
				result.AddError(field+".units", "At least one unit is required for remove")
			}
		default:
			result.AddError(field+".op", fmt.Sprintf("Unknown mutation '%s'", m.Op))
		}
	}

	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateSettingsUpdate validates a learner settings update
func ValidateSettingsUpdate(req *LearnerSettingsUpdate) *ValidationResult {
	result := &ValidationResult{Valid: true}

	checkSites := func(field string, sites *[]string) {
		if sites == nil {
			return
		}
		for i, site := range *sites {
			if strings.TrimSpace(site) == "" || strings.ContainsAny(site, " \t\n/") {
				result.AddError(fmt.Sprintf("%s[%d]", field, i), "Must be a host name or a *.domain pattern")
			}
		}
	}
	checkSites("enabled_sites", req.EnabledSites)
	checkSites("disabled_sites", req.DisabledSites)

	if req.Palette != nil {
		for status, color := range *req.Palette {
			if _, ok := model.ParseStatus(string(status)); !ok {
				result.AddError("palette", fmt.Sprintf("Unknown status '%s'", status))
				continue
			}
			if strings.TrimSpace(color) == "" {
				result.AddError("palette", fmt.Sprintf("Color for '%s' cannot be empty", status))
			}
		}
	}

	return result
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}

// ValidateQueryBinding validates query parameter binding
func ValidateQueryBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindQuery(target); err != nil {
		result.AddError("query_parameters", "Invalid query parameters: "+err.Error())
	}

	return result
}
