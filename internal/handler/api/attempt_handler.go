package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"socialpay/internal/models"
)

// AttemptStore is the read side of the attempt history.
type AttemptStore interface {
	FindAll(ctx context.Context, limit, page int, query string) ([]models.CheckoutAttempt, int64, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.CheckoutAttempt, error)
}

// AttemptHandler lists recorded checkout attempts for operators.
type AttemptHandler struct {
	store  AttemptStore
	logger *zap.Logger
}

func NewAttemptHandler(store AttemptStore, logger *zap.Logger) *AttemptHandler {
	return &AttemptHandler{store: store, logger: logger}
}

// List pages through attempts, newest first.
// GET /api/attempts?limit=&page=&q=
func (h *AttemptHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if page <= 0 {
		page = 1
	}

	attempts, total, err := h.store.FindAll(c.Request().Context(), limit, page, c.QueryParam("q"))
	if err != nil {
		h.logger.Error("Failed to list checkout attempts", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve attempts", nil)
	}
	return successResponse(c, "Successful", paginatedResponse(attempts, total, page, limit))
}

// Get returns the attempt recorded for a backend transaction.
// GET /api/attempts/:transaction_id
func (h *AttemptHandler) Get(c echo.Context) error {
	id := strings.TrimSpace(c.Param("transaction_id"))
	attempt, err := h.store.FindByTransactionID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "Attempt not found", nil)
		}
		h.logger.Error("Failed to load checkout attempt", zap.String("transaction_id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve attempt", nil)
	}
	return successResponse(c, "Successful", attempt)
}
