package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figflow/internal/config"
	apierrors "figflow/internal/errors"
	"figflow/internal/infrastructure"
	"figflow/internal/nace"
	"figflow/internal/services"
)

const appTestExports = "freq,geo,c_geo,nace_r2,c_nace_r2,unit\t2020\n" +
	"A,AT,DE,A01,C10,MIO_EUR\t500\n"

const appTestImports = "freq,geo,c_geo,nace_r2,c_nace_r2,unit\t2020\n" +
	"A,AT,FR,A01,C10,MIO_EUR\t120\n"

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fgte.tsv"), []byte(appTestExports), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fgti.tsv"), []byte(appTestImports), 0644))

	cfg := config.Default()
	cfg.Data = config.DataConfig{Dir: dir, ExportsFile: "fgte.tsv", ImportsFile: "fgti.tsv"}
	cfg.Security.RateLimit.Enabled = false

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	require.NoError(t, err)

	providers, err := infrastructure.InitializeOTel(logger)
	require.NoError(t, err)

	a := &Application{
		Config:        cfg,
		FlowService:   services.NewFlowService(cfg, nace.NewHierarchy(), logger),
		Logger:        logger,
		OTelProviders: providers,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}
	a.setupRouter()
	return a
}

func TestApplicationRouter(t *testing.T) {
	a := newTestApplication(t)
	require.NoError(t, a.FlowService.Reload(context.Background()))

	get := func(target string) (*httptest.ResponseRecorder, map[string]interface{}) {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		var body map[string]interface{}
		if rec.Body.Len() > 0 && json.Unmarshal(rec.Body.Bytes(), &body) != nil {
			body = nil
		}
		return rec, body
	}

	t.Run("graph endpoint", func(t *testing.T) {
		rec, body := get("/api/flows/graph?year=2020")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, a.FlowService.SnapshotID(), body["snapshot_id"])
	})

	t.Run("years endpoint", func(t *testing.T) {
		rec, body := get("/api/flows/years")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{float64(2020)}, body["data"])
	})

	t.Run("unknown year returns problem details", func(t *testing.T) {
		rec, body := get("/api/flows/graph?year=1900")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeYearNotFound, body["type"])
	})

	t.Run("health and readiness", func(t *testing.T) {
		rec, body := get("/api/health")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])

		rec, _ = get("/api/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics endpoint is exposed", func(t *testing.T) {
		rec, _ := get("/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown route returns problem details", func(t *testing.T) {
		rec, body := get("/api/nope")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeNotFound, body["type"])
	})

	t.Run("request id header is set", func(t *testing.T) {
		rec, _ := get("/api/health/live")
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}
