package handlers

import (
	"errors"
	"net/http"

	"dt_fancontrol/internal/repository"
	"dt_fancontrol/internal/service"
	"dt_fancontrol/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	var perr *session.PortOpenError
	switch {
	case service.IsValidation(err):
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), logKey, err, kv...)
	case errors.Is(err, session.ErrAlreadyConnected),
		errors.Is(err, session.ErrNotConnected),
		errors.Is(err, session.ErrConnectAborted),
		errors.Is(err, repository.ErrUserExists):
		h.logAndJSONError(c, http.StatusConflict, err.Error(), logKey, err, kv...)
	case errors.As(err, &perr):
		h.log.Warnw(logKey, append([]interface{}{"err", err, "kind", perr.Kind}, kv...)...)
		c.JSON(http.StatusBadGateway, gin.H{"error": perr.Error(), "kind": perr.Kind})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}

// respondWithStatusAndState includes the panel state when available.
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	if st, err := h.services.Monitoring.GetState(c.Request.Context()); err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
