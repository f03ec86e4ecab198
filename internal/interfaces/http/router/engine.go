package router

import (
	"net/http"

	"github.com/erp/ordersync/internal/infrastructure/logger"
	"github.com/erp/ordersync/internal/interfaces/http/dto"
	"github.com/erp/ordersync/internal/interfaces/http/handler"
	"github.com/erp/ordersync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig configures the middleware stack of the HTTP engine
type EngineConfig struct {
	Logger         *zap.Logger
	Meter          metric.Meter // nil disables HTTP metrics
	ServiceName    string
	TracingEnabled bool
	MaxBodySize    int64
	TrustedProxies []string
}

// Handlers groups the HTTP handlers served by the engine
type Handlers struct {
	System    *handler.SystemHandler
	OrderSync *handler.OrderSyncHandler
	Lead      *handler.LeadHandler
}

// NewEngine builds the gin engine with the middleware stack and every route.
//
// Middleware order:
//  1. RequestID - generate or propagate the request id
//  2. Recovery - catch panics
//  3. Tracing - server span per request, enriched with the request id
//  4. Logger - request log correlated with the span
//  5. Metrics - request count, duration and size
//  6. BodyLimit - cap request bodies
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(cfg.Meter))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "route not found", middleware.GetRequestID(c)))
	})

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if h.OrderSync != nil {
		r.Register(OrderRoutes(h.OrderSync))
	}
	if h.Lead != nil {
		r.Register(LeadRoutes(h.Lead))
	}
	r.Setup()

	return engine
}

// OrderRoutes returns the order sync routes
func OrderRoutes(h *handler.OrderSyncHandler) *ResourceRoutes {
	return NewResourceRoutes("/orders").
		POST("/sync", h.SyncOrder).
		POST("/sync/batch", h.SyncBatch).
		POST("/sync-status", h.SyncStatus).
		DELETE("/:id/sales-order", h.RemoveSalesOrder)
}

// LeadRoutes returns the lead capture routes
func LeadRoutes(h *handler.LeadHandler) *ResourceRoutes {
	return NewResourceRoutes("/leads").
		POST("", h.RecordLead)
}
