package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"dt_fancontrol/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	// panel refresh, matching the desktop tool's one second tick
	defaultPanelTick = time.Second
	minPanelTick     = 50 * time.Millisecond
	maxPanelTick     = 10 * time.Second

	msgState = "state"
	msgError = "error"
)

// wsEnvelope wraps every message on the panel stream.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// panelStream pushes the panel state to one subscriber. A state is sent
// once per change; polls that find nothing new stay silent.
type panelStream struct {
	h        *Handler
	conn     *websocket.Conn
	lastSent time.Time
}

// @Summary      Panel state stream
// @Description  Polls the panel state every tick (?interval=500ms or ?interval=500, 50ms..10s) and pushes it when it changed
// @Tags         session
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	tick := panelTick(c.Query("interval"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go drain(conn, closed)

	ps := &panelStream{h: h, conn: conn}
	ps.run(c.Request.Context(), tick, closed)
}

func (ps *panelStream) run(ctx context.Context, tick time.Duration, closed <-chan struct{}) {
	poll := time.NewTicker(tick)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := ps.push(ctx); err != nil {
		ps.h.log.Infow("ws_push_failed", "err", err)
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = ps.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ps.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ps.h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case <-poll.C:
			if err := ps.push(ctx); err != nil {
				ps.h.log.Infow("ws_push_failed", "err", err)
				return
			}
		}
	}
}

// push sends the state if it changed since the last push. A failing
// state read is reported to the client and ends the stream.
func (ps *panelStream) push(ctx context.Context) error {
	st, err := ps.h.services.Monitoring.GetState(ctx)
	if err != nil {
		ps.h.log.Errorw("ws_get_state_failed", "err", err)
		_ = ps.write(wsEnvelope{Type: msgError, Error: errGetState})
		return err
	}
	if !ps.changed(st) {
		return nil
	}
	if err := ps.write(wsEnvelope{Type: msgState, Data: st}); err != nil {
		return err
	}
	ps.lastSent = st.UpdatedAt
	return nil
}

func (ps *panelStream) changed(st models.PanelState) bool {
	return ps.lastSent.IsZero() || !st.UpdatedAt.Equal(ps.lastSent)
}

func (ps *panelStream) write(env wsEnvelope) error {
	_ = ps.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return ps.conn.WriteJSON(env)
}

// panelTick accepts a Go duration or a bare number of milliseconds.
// Out of range or unparsable values fall back to the default.
func panelTick(s string) time.Duration {
	if s == "" {
		return defaultPanelTick
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		ms, aerr := strconv.Atoi(s)
		if aerr != nil {
			return defaultPanelTick
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d < minPanelTick || d > maxPanelTick {
		return defaultPanelTick
	}
	return d
}

// drain reads until the client goes away so control frames are handled.
func drain(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
