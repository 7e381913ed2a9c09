package httpt

import (
	"orderflow/internal/authz"
	"orderflow/internal/config"
	"orderflow/internal/service"
	"orderflow/pkg/logger"
	"orderflow/pkg/metric"
	"orderflow/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc     *service.IntakeService
	auth    *authz.Resolver
	limiter *ratelimit.Limiter
	log     logger.Logger
	metrics metric.HTTP
	router  *gin.Engine
	env     string

	strictClass   ratelimit.Class
	moderateClass ratelimit.Class
	lenientClass  ratelimit.Class
}

func NewOrderHandler(
	svc *service.IntakeService,
	auth *authz.Resolver,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	log logger.Logger,
	metrics metric.HTTP,
) *OrderHandler {
	h := &OrderHandler{
		svc:     svc,
		auth:    auth,
		limiter: limiter,
		log:     log,
		metrics: metrics,
		env:     cfg.Env,

		strictClass: ratelimit.Class{
			Window:      cfg.RateLimit.StrictWindow,
			MaxRequests: cfg.RateLimit.StrictMax,
		},
		moderateClass: ratelimit.Class{
			Window:      cfg.RateLimit.ModerateWindow,
			MaxRequests: cfg.RateLimit.ModerateMax,
		},
		lenientClass: ratelimit.Class{
			Window:      cfg.RateLimit.LenientWindow,
			MaxRequests: cfg.RateLimit.LenientMax,
		},
	}

	router := gin.New()

	router.Use(h.requestIDMiddleware())
	router.Use(h.loggingMiddleware())
	router.Use(h.securityHeadersMiddleware())
	router.Use(gin.Recovery())

	h.router = router

	h.setupRoutes()

	return h
}

func (h *OrderHandler) Engine() *gin.Engine {
	return h.router
}
