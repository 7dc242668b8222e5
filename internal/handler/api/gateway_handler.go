package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"socialpay/internal/payment"
)

// GatewayHandler serves the payment catalog.
type GatewayHandler struct {
	catalog *payment.Catalog
	logger  *zap.Logger
}

func NewGatewayHandler(catalog *payment.Catalog, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{catalog: catalog, logger: logger}
}

// List returns every gateway, or only processable mediums with ?usable=1.
// GET /api/gateways
func (h *GatewayHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("usable") == "1" {
		mediums, err := h.catalog.Mediums(ctx)
		if err != nil {
			h.logger.Error("Failed to list mediums", zap.Error(err))
			return errorResponse(c, http.StatusBadGateway, "Failed to retrieve payment methods", nil)
		}
		return successResponse(c, "Successful", mediums)
	}

	gateways, err := h.catalog.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list gateways", zap.Error(err))
		return errorResponse(c, http.StatusBadGateway, "Failed to retrieve payment methods", nil)
	}
	return successResponse(c, "Successful", gateways)
}

// Refresh drops the cached catalog and fetches it again.
// POST /api/gateways/refresh
func (h *GatewayHandler) Refresh(c echo.Context) error {
	gateways, err := h.catalog.Refresh(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to refresh gateways", zap.Error(err))
		return errorResponse(c, http.StatusBadGateway, "Failed to refresh payment methods", nil)
	}
	h.logger.Info("Gateway catalog refreshed", zap.Int("count", len(gateways)))
	return successResponse(c, "Catalog refreshed", gateways)
}
