package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"dt_fancontrol/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var queryTimeLayouts = []string{time.RFC3339, layoutDateTime, layoutDate}

// logsQuery is the raw query of GET /api/v1/logs.
type logsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
	Type string `form:"type"`
}

// filter converts the query into a service filter. A date-only 'to'
// extends to the end of that day.
func (q logsQuery) filter() (service.LogFilter, error) {
	f := service.LogFilter{Type: strings.ToUpper(strings.TrimSpace(q.Type))}
	var err error
	if q.From != "" {
		if f.From, _, err = parseQueryTime(q.From); err != nil {
			return f, fmt.Errorf("invalid 'from': %w", err)
		}
	}
	if q.To != "" {
		var dateOnly bool
		if f.To, dateOnly, err = parseQueryTime(q.To); err != nil {
			return f, fmt.Errorf("invalid 'to': %w", err)
		}
		if dateOnly {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return f, nil
}

// @Summary      List session events
// @Description  Filter by time (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD', UTC) and type. A date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range, inclusive"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(CONNECT,DISCONNECT,SEND,FAILURE,PARSE_ERROR)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	var q logsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := q.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, "logs_list_failed", err, "from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// parseQueryTime reports dateOnly when s carried no time of day.
func parseQueryTime(s string) (t time.Time, dateOnly bool, err error) {
	for _, layout := range queryTimeLayouts {
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), layout == layoutDate, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%q is not RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}
