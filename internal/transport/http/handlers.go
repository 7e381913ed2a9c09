package httpt

import (
	"net/http"
	"strconv"

	"orderflow/internal/entity"
	"orderflow/internal/redact"
	"orderflow/internal/service"
	"orderflow/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @Summary Submit an order
// @Description Runs the order intake pipeline and returns the created order
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body httpt.SubmitOrderRequest true "Order submission payload"
// @Success 200 {object} httpt.SuccessResponse "Created (or deduplicated) order"
// @Failure 400 {object} httpt.ErrorResponse "Invalid submission"
// @Failure 429 {object} httpt.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} httpt.ErrorResponse "Internal error"
// @Router /orders [post]
func (h *OrderHandler) submitOrderHandler(c *gin.Context) {
	const op = "transport.submitOrderHandler"

	log := h.log.Ctx(c.Request.Context())

	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.LogAttrs(c.Request.Context(), logger.WarnLevel, "malformed order submission",
			logger.Any("error", err),
			logger.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid order data. Check customer details and items.",
		})
		return
	}

	order, err := h.svc.SubmitOrder(c.Request.Context(), toSubmission(&req))
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	log.LogAttrs(c.Request.Context(), logger.InfoLevel, "order submitted",
		logger.String("order_number", order.OrderNumber),
		logger.Float64("order_total", order.OrderTotal),
	)

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: SubmitOrderData{
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID.String(),
			Status:      string(order.OrderStatus),
			Total:       order.OrderTotal,
			CreatedAt:   order.CreatedAt,
		},
	})
}

// @Summary List orders
// @Description Customer-scoped listing via ?customerId, or staff-wide listing
// @Tags Orders
// @Produce json
// @Param customerId query string false "Customer id or email for self-service listing"
// @Param status query string false "Order status filter"
// @Param customerEmail query string false "Admin-only email filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} httpt.SuccessResponse "Paged orders"
// @Failure 401 {object} httpt.ErrorResponse "Authentication required"
// @Failure 500 {object} httpt.ErrorResponse "Internal error"
// @Router /orders [get]
func (h *OrderHandler) listOrdersHandler(c *gin.Context) {
	const op = "transport.listOrdersHandler"

	query := service.ListQuery{
		Page:   intQuery(c, "page"),
		Limit:  intQuery(c, "limit"),
		Status: c.Query("status"),
	}

	if customerRef := c.Query("customerId"); customerRef != "" {
		orders, pagination, err := h.svc.ListCustomerOrders(c.Request.Context(), customerRef, query)
		if err != nil {
			h.handleServiceError(c, err, op)
			return
		}

		summaries := make([]OrderSummary, 0, len(orders))
		for _, order := range orders {
			summaries = append(summaries, OrderSummary{
				OrderID:       order.ID.String(),
				OrderNumber:   order.OrderNumber,
				OrderStatus:   string(order.OrderStatus),
				PaymentStatus: string(order.PaymentStatus),
				OrderTotal:    order.OrderTotal,
				CreatedAt:     order.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, SuccessResponse{
			Success:    true,
			Data:       summaries,
			Pagination: &pagination,
		})
		return
	}

	auth := h.auth.Resolve(c.Request)
	if !auth.IsStaff() {
		h.handleServiceError(c, entity.ErrUnauthenticated, op)
		return
	}

	// The email filter reveals another customer's history, so managers
	// do not get it.
	if auth.IsAdmin() {
		query.CustomerEmail = c.Query("customerEmail")
	}

	orders, pagination, err := h.svc.ListOrders(c.Request.Context(), query)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	records := make([]map[string]any, 0, len(orders))
	for _, order := range orders {
		records = append(records, redact.AsMap(order))
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success:    true,
		Data:       redact.FilterSlice(records, auth, redact.TypeOrder),
		Pagination: &pagination,
	})
}

// @Summary Get an order
// @Description Returns one order by its public order number
// @Tags Orders
// @Produce json
// @Param order_number path string true "Order number"
// @Success 200 {object} httpt.SuccessResponse "Order detail"
// @Failure 404 {object} httpt.ErrorResponse "Order not found"
// @Failure 500 {object} httpt.ErrorResponse "Internal error"
// @Router /orders/{order_number} [get]
func (h *OrderHandler) getOrderHandler(c *gin.Context) {
	const op = "transport.getOrderHandler"

	orderNumber := c.Param("order_number")

	order, err := h.svc.GetOrder(c.Request.Context(), orderNumber)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	auth := h.auth.Resolve(c.Request)
	filtered := redact.Filter(redact.AsMap(order), auth, redact.TypeOrder)
	if filtered == nil {
		// The order exists but this caller may not know that.
		c.JSON(http.StatusNotFound, ErrorResponse{
			Success: false,
			Error:   "Order not found",
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    filtered,
	})
}

// preflightHandler answers CORS preflight for the storefront checkout. The
// CORS headers themselves come from securityHeadersMiddleware.
func (h *OrderHandler) preflightHandler(c *gin.Context) {
	c.Status(http.StatusOK)
}

func toSubmission(req *SubmitOrderRequest) *service.Submission {
	submission := &service.Submission{
		Customer: service.CustomerPayload{
			FullName:       req.Customer.FullName,
			Email:          req.Customer.Email,
			Phone:          req.Customer.Phone,
			SecondaryPhone: req.Customer.SecondaryPhone,
		},
		Items: make([]*entity.OrderItem, 0, len(req.Items)),
	}

	if req.Customer.Address != nil {
		submission.Customer.Address = &service.AddressPayload{
			Street:     req.Customer.Address.Street,
			City:       req.Customer.Address.City,
			PostalCode: req.Customer.Address.PostalCode,
			Province:   req.Customer.Address.Province,
		}
	}

	for _, item := range req.Items {
		submission.Items = append(submission.Items, &entity.OrderItem{
			ProductID:     item.ProductID,
			VariantID:     item.VariantID,
			ProductName:   item.ProductName,
			ProductSKU:    item.ProductSKU,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Subtotal:      item.Subtotal,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
		})
	}

	return submission
}

func intQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
