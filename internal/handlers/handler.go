package handlers

import (
	"dt_fancontrol/internal/logger"
	"dt_fancontrol/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// panel stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/state", h.getState)
		api.GET("/ports", h.listPorts)
		h.registerSessionRoutes(api)
		h.registerCurveRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	sess := api.Group("/session")
	{
		// Body example: {"port":"/dev/ttyUSB0"}
		sess.POST("/connect", h.connect)
		sess.POST("/disconnect", h.disconnect)
		// Body optional: {"s_min":18,"s_max":100,"s_slope":-0.4,"s_attack":6}
		sess.POST("/send", h.send)
	}
}

func (h *Handler) registerCurveRoutes(api *gin.RouterGroup) {
	c := api.Group("/curve")
	{
		c.GET("", h.getCurve)
		c.PUT("", h.updateCurve)
		c.POST("/reset", h.resetCurve)
		c.GET("/points", h.curvePoints)
		c.GET("/limits", h.curveLimits)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}
