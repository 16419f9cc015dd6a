// Package routes assembles the HTTP API.
package routes

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/vendor-performance-api/config"
	"github.com/kendall-kelly/vendor-performance-api/controllers"
	"github.com/kendall-kelly/vendor-performance-api/logger"
	"github.com/kendall-kelly/vendor-performance-api/middleware"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"github.com/kendall-kelly/vendor-performance-api/services"
	"github.com/kendall-kelly/vendor-performance-api/telemetry"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the router wires into controllers
type Dependencies struct {
	DB      *gorm.DB
	Engine  *performance.Engine // built from DB when nil
	Reports services.ReportStorage
	Clock   performance.Clock

	// Authenticator replaces the Auth0 token check when set. Tests use it to
	// inject claims.
	Authenticator gin.HandlerFunc
}

// New builds the router with all /api/v1 routes
func New(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	authenticate, err := authenticator(cfg, deps)
	if err != nil {
		return nil, err
	}
	requireScope := func(scope string) gin.HandlerFunc {
		if authenticate == nil {
			return middleware.AllowAll
		}
		return middleware.RequireScope(scope)
	}

	engine := deps.Engine
	if engine == nil {
		opts := []performance.Option{performance.WithWorkers(cfg.RecomputeWorkers), performance.WithLogger(logger.GetLogger())}
		if deps.Clock != nil {
			opts = append(opts, performance.WithClock(deps.Clock))
		}
		engine = performance.NewEngine(performance.NewGormStore(deps.DB), opts...)
	}

	vendorService := services.NewVendorService(deps.DB, deps.Clock)
	orderService := services.NewPurchaseOrderService(deps.DB, engine, deps.Clock)
	reportService := services.NewReportService(vendorService, deps.Reports, cfg.ReportsPrefix, deps.Clock)

	vendors := controllers.NewVendorController(vendorService)
	orders := controllers.NewPurchaseOrderController(orderService)
	perf := controllers.NewPerformanceController(vendorService, reportService, engine)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(logger.Middleware())
	router.Use(telemetry.Middleware())

	router.GET("/metrics", gin.WrapH(telemetry.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus(deps.DB))
	}

	protected := v1.Group("")
	if authenticate != nil {
		protected.Use(authenticate)
	}
	{
		protected.GET("/vendors", vendors.ListVendors)
		protected.GET("/vendors/:id", vendors.GetVendor)
		protected.POST("/vendors", requireScope(middleware.ScopeWriteVendors), vendors.CreateVendor)
		protected.PUT("/vendors/:id", requireScope(middleware.ScopeWriteVendors), vendors.UpdateVendor)
		protected.PATCH("/vendors/:id", requireScope(middleware.ScopeWriteVendors), vendors.UpdateVendor)
		protected.DELETE("/vendors/:id", requireScope(middleware.ScopeWriteVendors), vendors.DeleteVendor)

		protected.GET("/vendors/:id/performance", perf.GetPerformance)
		protected.GET("/vendors/:id/performance/logs", perf.GetPerformanceLogs)
		protected.POST("/vendors/:id/performance/logs/export", perf.ExportPerformanceLogs)
		protected.POST("/vendors/:id/performance/recompute", requireScope(middleware.ScopeWriteVendors), perf.RecomputeVendor)
		protected.POST("/performance/recompute", requireScope(middleware.ScopeWriteVendors), perf.RecomputeAll)

		protected.GET("/purchase_orders", orders.ListPurchaseOrders)
		protected.GET("/purchase_orders/:id", orders.GetPurchaseOrder)
		protected.POST("/purchase_orders", requireScope(middleware.ScopeWritePurchaseOrders), orders.CreatePurchaseOrder)
		protected.PUT("/purchase_orders/:id", requireScope(middleware.ScopeWritePurchaseOrders), orders.UpdatePurchaseOrder)
		protected.PATCH("/purchase_orders/:id", requireScope(middleware.ScopeWritePurchaseOrders), orders.UpdatePurchaseOrder)
		protected.DELETE("/purchase_orders/:id", requireScope(middleware.ScopeWritePurchaseOrders), orders.DeletePurchaseOrder)
		protected.POST("/purchase_orders/:id/acknowledge", requireScope(middleware.ScopeWritePurchaseOrders), orders.AcknowledgePurchaseOrder)
	}

	return router, nil
}

func authenticator(cfg *config.Config, deps Dependencies) (gin.HandlerFunc, error) {
	if deps.Authenticator != nil {
		return deps.Authenticator, nil
	}
	if !cfg.AuthEnabled() {
		logger.GetLogger().Warn("AUTH0_DOMAIN is not set, API authentication is disabled")
		return nil, nil
	}
	return middleware.EnsureValidToken(cfg)
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 || slices.Contains(cfg.CORSAllowedOrigins, "*") {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}
