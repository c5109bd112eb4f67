package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-scoring-service/internal/adapters/primary/http/dto"
	"lead-scoring-service/internal/adapters/secondary/artifacts"
	"lead-scoring-service/internal/adapters/secondary/file"
	"lead-scoring-service/internal/core/services"
)

// newTestRouter wires a full engine over file-backed adapters in a temp
// directory, exercising the same composition as the server entrypoint.
func newTestRouter(t *testing.T, trainedVersions ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	artifactDir := t.TempDir()

	for _, version := range trainedVersions {
		body := `{"model_version": "` + version + `", "intercept": 0, "coefficients": [0.5, -0.25]}`
		require.NoError(t, os.WriteFile(filepath.Join(artifactDir, version+".json"), []byte(body), 0o644))
	}
	if len(trainedVersions) > 0 {
		manifest, err := json.Marshal(map[string][]string{"versions": trainedVersions})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(artifactDir, "versions.json"), manifest, 0o644))
	}

	registryStore := file.NewRegistryStore(filepath.Join(dataDir, "model_performance.json"))
	eventLog := file.NewEventLog(
		filepath.Join(dataDir, "conversions.jsonl"),
		filepath.Join(dataDir, "monitoring_log.jsonl"),
	)
	artifactStore := artifacts.NewStore(artifactDir)

	registry, err := services.NewPerformanceRegistry(context.Background(), registryStore, eventLog, nil)
	require.NoError(t, err)

	allocator := services.NewThompsonAllocator(200)
	selector := services.NewModelSelector(registry, allocator, artifactStore)
	cache := services.NewModelCache(artifactStore, nil)
	lifecycle := services.NewLifecycleManager(registry, cache, nil, services.LifecycleConfig{}, nil)
	engine := services.NewEngine(registry, allocator, selector, cache, lifecycle, eventLog, nil)

	router := gin.New()
	New(engine).RegisterRoutes(router.Group("/api/v1/lead-scoring"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
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

// ============================================================================
// Scoring
// ============================================================================

func TestScore(t *testing.T) {
	router := newTestRouter(t, "v20250601")

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/score", dto.ScoreRequest{
		Source: "crm",
		Leads: []dto.LeadRequest{
			{LeadID: "lead-1", Features: []float64{1, 2}},
			{LeadID: "lead-2", Features: []float64{3, 4}},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "v20250601", resp.ModelVersion)
	require.Len(t, resp.Probabilities, 2)
	for _, p := range resp.Probabilities {
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}
	assert.Equal(t, 2, resp.Stats.Count)
}

func TestScore_NoModelAvailable(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/score", dto.ScoreRequest{
		Leads: []dto.LeadRequest{{LeadID: "lead-1", Features: []float64{1}}},
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestScore_MissingLeads(t *testing.T) {
	router := newTestRouter(t, "v1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/score", map[string]string{"source": "crm"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// Conversions
// ============================================================================

func TestRecordConversion(t *testing.T) {
	router := newTestRouter(t, "v20250601")

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/score", dto.ScoreRequest{
		Leads: []dto.LeadRequest{{LeadID: "lead-1", Features: []float64{1, 2}}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/conversions", dto.ConversionRequest{
		LeadID:       "lead-1",
		ModelVersion: "v20250601",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ModelRecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.TotalConversions)
	assert.InDelta(t, 100.0, resp.ConversionRate, 1e-9)
}

func TestRecordConversion_UnknownModel(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/conversions", dto.ConversionRequest{
		LeadID:       "lead-1",
		ModelVersion: "ghost",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============================================================================
// Registry
// ============================================================================

func TestAddModel(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/models", dto.AddModelRequest{ModelVersion: "v2"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/models", dto.AddModelRequest{ModelVersion: "v2"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetModel_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/lead-scoring/models/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListModels(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/models", dto.AddModelRequest{ModelVersion: "v1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/lead-scoring/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ListModelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

// ============================================================================
// Operational Views
// ============================================================================

func TestGetStatus(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/lead-scoring/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetStatusReport(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/lead-scoring/status/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "MULTI-ARMED BANDIT STATUS")
}

func TestGetRecentMonitoring(t *testing.T) {
	router := newTestRouter(t, "v20250601")

	w := doJSON(t, router, http.MethodPost, "/api/v1/lead-scoring/score", dto.ScoreRequest{
		Source: "crm",
		Leads:  []dto.LeadRequest{{LeadID: "lead-1", Features: []float64{1, 2}}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/lead-scoring/models/v20250601/monitoring", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.MonitoringResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "crm", resp.Items[0].Source)
}
