package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/internal/engine"
	"github.com/gcbaptista/go-vocab-highlighter/internal/statusapi"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

const testDocument = "<p>I am testing zebras.</p>"

func setupTestEngine(t *testing.T) (*engine.Engine, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	resolver := statusapi.NewMemory(model.LemmaStatusRecord{Lemma: "test", Status: model.StatusLearning})
	eng, err := engine.New(engine.Deps{Resolver: resolver}, engine.Options{
		Settings:   config.DefaultScanSettings(),
		Site:       "localhost",
		Whitelist:  []string{"test", "zebra"},
		Registerer: reg,
	})
	require.NoError(t, err)
	t.Cleanup(eng.Stop)
	return eng, reg
}

func setupTestRouter(t *testing.T) (*gin.Engine, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng, reg := setupTestEngine(t)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	SetupRoutes(router, eng, Options{Gatherer: reg})
	return router, eng
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

func loadDocument(t *testing.T, router http.Handler) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/documents", LoadDocumentRequest{HTML: testDocument})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthCheckHandler(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["active"])
	assert.Equal(t, true, body["whitelist"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestHealthCheckHandler_WithoutWhitelist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng, err := engine.New(engine.Deps{}, engine.Options{Settings: config.DefaultScanSettings(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(eng.Stop)
	router := gin.New()
	SetupRoutes(router, eng, Options{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, false, body["whitelist"])
}

func TestLoadDocumentHandler(t *testing.T) {
	router, eng := setupTestRouter(t)

	t.Run("json body", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/documents", LoadDocumentRequest{HTML: testDocument})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var body struct {
			Units int `json:"units"`
			Scan  struct {
				PassID string `json:"pass_id"`
				Kind   string `json:"kind"`
			} `json:"scan"`
		}
		decode(t, w, &body)
		assert.Equal(t, 1, body.Units)
		assert.Equal(t, "full", body.Scan.Kind)
		assert.NotEmpty(t, body.Scan.PassID)
		assert.Equal(t, 2, eng.Registry().Len())
	})

	t.Run("raw html body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("<p>Zebras.</p><p>Testing.</p>"))
		req.Header.Set("Content-Type", "text/html; charset=utf-8")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, 2, eng.Store().Len())
	})

	t.Run("missing html", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/documents", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var apiErr APIError
		decode(t, w, &apiErr)
		assert.Equal(t, ErrorCodeInvalidJSON, apiErr.Code)
		assert.NotEmpty(t, apiErr.RequestID)
	})
}

func TestGetHighlightsHandler(t *testing.T) {
	router, _ := setupTestRouter(t)
	loadDocument(t, router)

	w := doJSON(t, router, http.MethodGet, "/highlights", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Highlights struct {
			Entries  []model.HighlightEntry `json:"entries"`
			Learning []model.Anchor         `json:"learning"`
			Unknown  []model.Anchor         `json:"unknown"`
		} `json:"highlights"`
	}
	decode(t, w, &body)
	assert.Len(t, body.Highlights.Entries, 2)
	assert.Len(t, body.Highlights.Learning, 1)
	assert.Len(t, body.Highlights.Unknown, 1)
}

func TestScanHandler(t *testing.T) {
	router, eng := setupTestRouter(t)
	loadDocument(t, router)

	w := doJSON(t, router, http.MethodPost, "/scan", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, eng.ListPasses(nil, nil), 2)

	t.Run("scanning disabled", func(t *testing.T) {
		eng.Scanner().SetEnabled(false)
		t.Cleanup(func() { eng.Scanner().SetEnabled(true) })

		w := doJSON(t, router, http.MethodPost, "/scan", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		var apiErr APIError
		decode(t, w, &apiErr)
		assert.Equal(t, ErrorCodeFeatureDisabled, apiErr.Code)
	})
}

func TestApplyMutationsHandler(t *testing.T) {
	router, eng := setupTestRouter(t)
	loadDocument(t, router)

	w := doJSON(t, router, http.MethodPost, "/mutations", MutationsRequest{Mutations: []model.Mutation{
		{Op: model.MutationAppendHTML, HTML: "<p>More zebras.</p>"},
	}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, 2, eng.Store().Len())

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name:           "empty batch",
			body:           MutationsRequest{Mutations: []model.Mutation{}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "unknown op",
			body:           MutationsRequest{Mutations: []model.Mutation{{Op: "explode"}}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "unknown unit",
			body:           MutationsRequest{Mutations: []model.Mutation{{Op: model.MutationReplaceText, Unit: 999, Text: "x"}}},
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrorCodeUnitNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/mutations", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			var apiErr APIError
			decode(t, w, &apiErr)
			assert.Equal(t, tt.expectedCode, apiErr.Code)
		})
	}
}

func TestPointerHandlers(t *testing.T) {
	router, eng := setupTestRouter(t)
	loadDocument(t, router)

	entries := eng.Registry().EntriesForLemma("test")
	require.Len(t, entries, 1)
	p, ok := eng.Layout().PointOf(entries[0].Occurrence.Anchor)
	require.True(t, ok)

	w := doJSON(t, router, http.MethodPost, "/pointer/move", PointerRequest{X: p.X, Y: p.Y})
	require.Equal(t, http.StatusOK, w.Code)
	var move map[string]string
	decode(t, w, &move)
	assert.Equal(t, "test", move["hovered_lemma"])

	w = doJSON(t, router, http.MethodPost, "/pointer/click", ClickRequest{
		PointerRequest: PointerRequest{X: p.X, Y: p.Y},
		Modifiers:      model.Modifiers{Alt: true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var click struct {
		Result struct {
			Path       string                   `json:"path"`
			Definition *model.DefinitionRequest `json:"definition"`
		} `json:"result"`
	}
	decode(t, w, &click)
	assert.Equal(t, "entry", click.Result.Path)
	require.NotNil(t, click.Result.Definition)
	assert.Equal(t, "I am testing zebras.", click.Result.Definition.Sentence)

	w = doJSON(t, router, http.MethodGet, "/display", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var display struct {
		Total int `json:"total"`
	}
	decode(t, w, &display)
	assert.Equal(t, 1, display.Total)

	w = doJSON(t, router, http.MethodGet, "/display?after=1", nil)
	decode(t, w, &display)
	assert.Equal(t, 0, display.Total)

	w = doJSON(t, router, http.MethodGet, "/display?after=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/pointer/move", PointerRequest{X: -1, Y: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetStatusHandler(t *testing.T) {
	router, eng := setupTestRouter(t)
	loadDocument(t, router)

	w := doJSON(t, router, http.MethodPost, "/words/status", StatusRequest{Word: "zebras", Status: model.StatusKnown})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, eng.Registry().Stats().Known)

	w = doJSON(t, router, http.MethodPost, "/words/status", StatusRequest{Word: "zebras", Status: "famous"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/words/status", StatusRequest{Status: model.StatusKnown})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIgnoreHandlers(t *testing.T) {
	router, eng := setupTestRouter(t)
	loadDocument(t, router)

	w := doJSON(t, router, http.MethodPost, "/words/ignore", WordRequest{Word: "zebras"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, eng.Registry().Len())

	w = doJSON(t, router, http.MethodGet, "/words/ignore", nil)
	var list struct {
		Words []string `json:"words"`
	}
	decode(t, w, &list)
	assert.Equal(t, []string{"zebras"}, list.Words)

	w = doJSON(t, router, http.MethodDelete, "/words/ignore/zebras", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, eng.Registry().Len(), "unignoring rescans")

	w = doJSON(t, router, http.MethodPost, "/words/ignore", WordRequest{Word: "two words"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPassHandlers(t *testing.T) {
	router, eng := setupTestRouter(t)
	loadDocument(t, router)

	passes := eng.ListPasses(nil, nil)
	require.Len(t, passes, 1)

	w := doJSON(t, router, http.MethodGet, "/passes/"+passes[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pass model.ScanPass
	decode(t, w, &pass)
	assert.Equal(t, model.PassStatusCompleted, pass.Status)

	w = doJSON(t, router, http.MethodGet, "/passes/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, ErrorCodePassNotFound, apiErr.Code)

	w = doJSON(t, router, http.MethodGet, "/passes?kind=full&status=completed", nil)
	var list struct {
		Total int `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Total)

	w = doJSON(t, router, http.MethodGet, "/passes?kind=high_frequency", nil)
	decode(t, w, &list)
	assert.Equal(t, 0, list.Total)

	w = doJSON(t, router, http.MethodGet, "/passes/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)
	loadDocument(t, router)

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vocab_scan_passes_total{kind="full",status="completed"} 1`)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
