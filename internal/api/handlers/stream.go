package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"market-sim/internal/analysis"
	"market-sim/internal/api/models"
	"market-sim/internal/simulation"
)

const (
	streamRequestTimeout = 30 * time.Second
	streamWriteTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamSimulation handles GET /api/v1/simulate/stream. After the upgrade the
// client sends one SimulateRequest and receives a "step" message per settled
// step followed by a "summary" message, or a single "error" message.
func (h *SimulateHandler) StreamSimulation(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(streamRequestTimeout))
	var req models.SimulateRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.streamError(conn, "INVALID_REQUEST", err)
		return
	}

	cfg, err := h.buildConfig(req.Preset, req.Scenario, req.Overrides)
	if err != nil {
		_, code := classify(err)
		h.streamError(conn, code, err)
		return
	}

	obs := &streamObserver{conn: conn, fills: req.Options.IncludeFills}
	result, err := h.run(cfg, obs)
	if err != nil {
		_, code := classify(err)
		h.streamError(conn, code, err)
		return
	}
	if obs.err != nil {
		h.log.Info("stream client went away", zap.Error(obs.err))
		return
	}

	summary := convertSummary(analysis.Summarize(result.Records))
	msg := models.StreamMessage{
		Type:     "summary",
		ID:       h.results.Put(cfg.Name, result),
		Summary:  &summary,
		Rankings: convertStandings(analysis.RankParticipants(result.Records)),
	}
	if err := writeFrame(conn, msg); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteTimeout))
}

func (h *SimulateHandler) streamError(conn *websocket.Conn, code string, err error) {
	h.log.Warn("stream failed", zap.String("code", code), zap.Error(err))
	_ = writeFrame(conn, models.StreamMessage{
		Type:  "error",
		Error: &models.ErrorDetail{Code: code, Message: err.Error()},
	})
}

func writeFrame(conn *websocket.Conn, msg models.StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}

// streamObserver forwards each settled step to the client. The first write
// error stops further writes; the run itself still completes.
type streamObserver struct {
	conn  *websocket.Conn
	fills bool
	err   error
}

func (o *streamObserver) OnStep(r simulation.Record) {
	if o.err != nil {
		return
	}
	rec := convertRecords([]simulation.Record{r}, o.fills)[0]
	o.err = writeFrame(o.conn, models.StreamMessage{Type: "step", Step: &rec})
}
