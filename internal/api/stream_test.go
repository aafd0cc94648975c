package api

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"market-sim/internal/api/models"
)

func dialStream(t *testing.T) *websocket.Conn {
	t.Helper()
	// Hijacked connections outlive the test server, so request logging may
	// run after the test returns.
	r, _ := newTestRouterWithLogger(t, zap.NewNop())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/simulate/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamSimulation(t *testing.T) {
	conn := dialStream(t)
	require.NoError(t, conn.WriteJSON(models.SimulateRequest{
		Preset:  "shortage",
		Options: models.SimulateOptions{IncludeFills: true},
	}))

	var steps []models.StepRecord
	for {
		var msg models.StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != "step" {
			require.Equal(t, "summary", msg.Type)
			require.NotNil(t, msg.Summary)
			assert.Equal(t, 2, msg.Summary.Steps)
			assert.NotEmpty(t, msg.ID)
			require.Len(t, msg.Rankings, 1)
			break
		}
		require.NotNil(t, msg.Step)
		steps = append(steps, *msg.Step)
	}

	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Step)
	assert.Equal(t, 1, steps[1].Step)
	assert.Equal(t, "SHORTAGE", steps[0].Regime)
	require.Len(t, steps[0].Fills, 1)
	assert.Equal(t, 50.0, steps[0].Fills[0].SellAmount)
}

func TestStreamSimulationError(t *testing.T) {
	conn := dialStream(t)
	require.NoError(t, conn.WriteJSON(models.SimulateRequest{Preset: "nope"}))

	var msg models.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	require.NotNil(t, msg.Error)
	assert.Equal(t, "PRESET_NOT_FOUND", msg.Error.Code)
}
