package handlers

import (
	"net/http"

	"github.com/iwtcode/servoSweep/internal/config"
	"github.com/iwtcode/servoSweep/internal/interfaces"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig, gatherer prometheus.Gatherer) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(h.logger))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/discovery", h.Discover)
		v1.GET("/sweep", h.GetSweepStatus)

		devices := v1.Group("/devices")
		{
			devices.GET("", h.GetDevices)
			devices.GET("/:id", h.GetDevice)
			devices.POST("/:id/telemetry", h.PushTelemetry)
		}
	}

	return router
}
