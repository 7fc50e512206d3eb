package handlers

import (
	"net/http"
	"strconv"

	"dt_fancontrol/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultPointsFrom = 0.0
	defaultPointsTo   = 35.0
	defaultPointsStep = 0.2
)

// @Summary      Get the curve in force
// @Tags         curve
// @Produce      json
// @Success      200  {object}  models.CurveParameters
// @Router       /api/v1/curve [get]
// @Security     BearerAuth
func (h *Handler) getCurve(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Curve.GetParams(c.Request.Context()))
}

// @Summary      Edit the curve
// @Description  Changes stay in memory until sent to the controller
// @Tags         curve
// @Accept       json
// @Produce      json
// @Param        body  body      models.CurveParameters  true  "New params"
// @Success      200   {object}  models.CurveParameters
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/curve [put]
// @Security     BearerAuth
func (h *Handler) updateCurve(c *gin.Context) {
	var p models.CurveParameters
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Curve.UpdateParams(ctx, p); err != nil {
		h.respondError(c, "curve_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.services.Curve.GetParams(ctx))
}

// @Summary      Reset the curve to defaults
// @Tags         curve
// @Produce      json
// @Success      200  {object}  models.CurveParameters
// @Router       /api/v1/curve/reset [post]
// @Security     BearerAuth
func (h *Handler) resetCurve(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Curve.Reset(c.Request.Context()))
}

// @Summary      Render the curve
// @Tags         curve
// @Produce      json
// @Param        from  query     number  false  "First delta-T"  default(0)
// @Param        to    query     number  false  "Upper delta-T bound, exclusive"  default(35)
// @Param        step  query     number  false  "Delta-T step"  default(0.2)
// @Success      200   {object}  map[string]interface{}  "params, points"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/curve/points [get]
// @Security     BearerAuth
func (h *Handler) curvePoints(c *gin.Context) {
	from, ok := floatQuery(c, "from", defaultPointsFrom)
	if !ok {
		return
	}
	to, ok := floatQuery(c, "to", defaultPointsTo)
	if !ok {
		return
	}
	step, ok := floatQuery(c, "step", defaultPointsStep)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	points, err := h.services.Curve.Points(ctx, from, to, step)
	if err != nil {
		h.respondError(c, "curve_points_failed", err, "from", from, "to", to, "step", step)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"params": h.services.Curve.GetParams(ctx),
		"points": points,
	})
}

// @Summary      Slider bounds
// @Tags         curve
// @Produce      json
// @Success      200  {object}  models.CurveLimits
// @Router       /api/v1/curve/limits [get]
// @Security     BearerAuth
func (h *Handler) curveLimits(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Curve.Limits(c.Request.Context()))
}

// floatQuery writes a 400 and returns false when the parameter is present
// but not a number.
func floatQuery(c *gin.Context, name string, def float64) (float64, bool) {
	s := c.Query(name)
	if s == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + name + "': not a number"})
		return 0, false
	}
	return v, true
}
