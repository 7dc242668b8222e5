package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"socialpay/internal/handler/api"
	"socialpay/internal/handler/ws"
	"socialpay/internal/middleware"
)

// Handlers are the endpoints the router mounts. Attempts is nil when no
// database is configured.
type Handlers struct {
	Gateways *api.GatewayHandler
	Sessions *api.SessionHandler
	Stream   *ws.StreamHandler
	Attempts *api.AttemptHandler
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, h Handlers, logger *zap.Logger, apiKey string, submitDeduper middleware.SubmitDeduper) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.RequestLogger(logger))

	apiGroup.GET("/gateways", h.Gateways.List)

	// Operator routes
	operator := apiGroup.Group("", middleware.APIAuth(apiKey))
	operator.POST("/gateways/refresh", h.Gateways.Refresh)
	if h.Attempts != nil {
		operator.GET("/attempts", h.Attempts.List)
		operator.GET("/attempts/:transaction_id", h.Attempts.Get)
	} else {
		logger.Info("Attempt history routes disabled (no database)")
	}

	// Payer routes
	sessions := apiGroup.Group("/sessions", middleware.SessionAuth())
	sessions.POST("", h.Sessions.Create)
	sessions.GET("/:id", h.Sessions.Get)
	sessions.POST("/:id/submit", h.Sessions.Submit, middleware.SubmitDedup(submitDeduper))
	sessions.POST("/:id/otp/digit", h.Sessions.Digit)
	sessions.POST("/:id/otp/paste", h.Sessions.Paste)
	sessions.POST("/:id/otp/resend", h.Sessions.Resend)
	sessions.POST("/:id/external/close", h.Sessions.CloseExternal)
	sessions.POST("/:id/dismiss", h.Sessions.Dismiss)
	sessions.GET("/:id/receipt", h.Sessions.Receipt)

	// The stream is long-lived and stays out of the request logger.
	e.GET("/api/sessions/:id/stream", h.Stream.Stream)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
