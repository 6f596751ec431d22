package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/firecat2d/firecat/spatial"
	"github.com/firecat2d/firecat/vector"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func TestHandleHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	HandleHealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleReadyCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleReadyCheck(func() bool { return true })(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleReadyCheck(func() bool { return false })(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandleVersion(t *testing.T) {
	w := httptest.NewRecorder()
	HandleVersion("v1.2.3")(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "v1.2.3", w.Body.String())
}

func TestHandleDebugGrid(t *testing.T) {
	grid := spatial.MustNewGrid[uint32, uint32](32, 16, 10)
	grid.Insert(1, vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 20, Y: 5})

	t.Run("writes occupancy", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleDebugGrid(grid.DebugInfo)(w, httptest.NewRequest(http.MethodGet, "/debug/grid", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var info spatial.DebugInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		require.Equal(t, uint32(2), info.GridSize)
		require.Equal(t, uint32(1), info.EntityCount)
		require.Equal(t, []uint32{1, 1, 0, 0}, info.Occupancy)
	})

	t.Run("rejects other methods", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleDebugGrid(grid.DebugInfo)(w, httptest.NewRequest(http.MethodPost, "/debug/grid", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestMetricsPathFormatter(t *testing.T) {
	require.Equal(t, "/debug/grid", MetricsPathFormatter(http.StatusOK, "/debug/grid"))
	require.Empty(t, MetricsPathFormatter(http.StatusNotFound, "/unknown"))
	require.Empty(t, MetricsPathFormatter(http.StatusMethodNotAllowed, "/debug/grid"))
}
