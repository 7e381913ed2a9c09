package httpt

import (
	"context"
	"errors"
	"net/http"

	"orderflow/internal/entity"
	"orderflow/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h *OrderHandler) handleServiceError(c *gin.Context, err error, op string) {
	log := h.log.Ctx(c.Request.Context())

	log.LogAttrs(c.Request.Context(), logger.ErrorLevel, op+" failed",
		logger.Any("error", err),
		logger.String("remote_addr", c.ClientIP()),
		logger.String("user_agent", c.Request.UserAgent()),
	)

	switch {
	case errors.Is(err, entity.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   "Authentication required",
		})
	case errors.Is(err, entity.ErrInvalidData):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid order data. Check customer details and items.",
		})
	case errors.Is(err, entity.ErrDataNotFound):
		log.LogAttrs(c.Request.Context(), logger.WarnLevel, "order not found",
			logger.String("order_number", c.Param("order_number")),
			logger.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusNotFound, ErrorResponse{
			Success: false,
			Error:   "Order not found",
		})
	case errors.Is(err, entity.ErrConflictingData):
		c.JSON(http.StatusConflict, ErrorResponse{
			Success: false,
			Error:   "Order conflicts with an existing record",
		})
	case errors.Is(err, context.DeadlineExceeded):
		log.LogAttrs(c.Request.Context(), logger.WarnLevel, "request timeout",
			logger.String("path", c.Request.URL.Path),
			logger.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Success: false,
			Error:   "Request timed out",
		})
	default:
		log.LogAttrs(c.Request.Context(), logger.ErrorLevel, "internal server error",
			logger.Any("error", err),
			logger.String("path", c.Request.URL.Path),
			logger.String("client_ip", c.ClientIP()),
		)
		message := "Failed to process order. Please try again."
		if h.env != "prod" {
			message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   message,
		})
	}
}
