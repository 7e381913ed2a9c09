package httpt

import (
	"net/http"

	_ "orderflow/docs" // for swagger

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Order Intake API
// @version         1.0
// @description     Storefront order intake and fulfilment lookups
// @contact.name    API Support
// @contact.email   support@ralhumsports.lk
// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html
// @host            localhost:8080
// @BasePath        /api
// @schemes         http https
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func (h *OrderHandler) setupRoutes() {
	h.router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	orders := h.router.Group("/api/orders")
	{
		orders.OPTIONS("", h.preflightHandler)
		orders.POST("", h.rateLimitMiddleware(h.strictClass), h.submitOrderHandler)
		orders.GET("", h.rateLimitMiddleware(h.moderateClass), h.listOrdersHandler)
		orders.GET("/:order_number", h.rateLimitMiddleware(h.lenientClass), h.getOrderHandler)
	}

	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
