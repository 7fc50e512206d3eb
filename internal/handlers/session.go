package handlers

import (
	"errors"
	"io"
	"net/http"

	"dt_fancontrol/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusSent         = "sent"

	errGetState  = "failed to load state"
	errListPorts = "failed to list ports"
)

// ConnectRequest selects the serial port to open.
type ConnectRequest struct {
	Port string `json:"port" binding:"required" example:"/dev/ttyUSB0"`
}

// @Summary      Get panel state
// @Description  Connection, latest telemetry, params in force and the derived status line
// @Tags         session
// @Produce      json
// @Success      200  {object}  models.PanelState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      List serial ports
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ports"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/ports [get]
// @Security     BearerAuth
func (h *Handler) listPorts(c *gin.Context) {
	ports, err := h.services.Ports.ListPorts(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListPorts, "list_ports_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}

// @Summary      Connect to the controller
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      ConnectRequest  true  "Port to open"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string  "already connected"
// @Failure      502   {object}  map[string]string  "port could not be opened"
// @Router       /api/v1/session/connect [post]
// @Security     BearerAuth
func (h *Handler) connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Session.Connect(c.Request.Context(), req.Port); err != nil {
		h.respondError(c, "session_connect_failed", err, "port", req.Port)
		return
	}
	h.respondWithStatusAndState(c, statusConnected, gin.H{"port": req.Port})
}

// @Summary      Disconnect from the controller
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string  "not connected"
// @Router       /api/v1/session/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnect(c *gin.Context) {
	if err := h.services.Session.Disconnect(c.Request.Context()); err != nil {
		h.respondError(c, "session_disconnect_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusDisconnected, gin.H{})
}

// @Summary      Send the curve to the controller
// @Description  Without a body the params in force are sent. They are persisted first.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      models.CurveParameters  false  "Curve to send"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string  "not connected"
// @Router       /api/v1/session/send [post]
// @Security     BearerAuth
func (h *Handler) send(c *gin.Context) {
	var params *models.CurveParameters
	var p models.CurveParameters
	switch err := c.ShouldBindJSON(&p); {
	case err == nil:
		params = &p
	case errors.Is(err, io.EOF):
		// empty body: send the params in force
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Session.Send(c.Request.Context(), params); err != nil {
		h.respondError(c, "session_send_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusSent, gin.H{})
}
