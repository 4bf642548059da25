package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tabify/order-sync/internal/api/handler"
	"github.com/tabify/order-sync/internal/api/middleware"
	"github.com/tabify/order-sync/internal/core/service"
	mongodb "github.com/tabify/order-sync/internal/infrastructure/db/mongo"
	redisdb "github.com/tabify/order-sync/internal/infrastructure/db/redis"
	"github.com/tabify/order-sync/internal/realtime"
	"github.com/tabify/order-sync/pkg/logger"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, sessionTTL time.Duration) *echo.Echo {
	log := logger.Get()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("tabify"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	sessionCache := redisdb.NewSessionCache(rdb, sessionTTL)

	identityService := service.NewIdentityService(userRepo, sessionCache, log)

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, log)

	orderService := service.NewOrderService(orderRepo, identityService, dispatcher, log)

	userHandler := handler.NewUserHandler(identityService)
	orderHandler := handler.NewOrderHandler(orderService)
	balanceHandler := handler.NewBalanceHandler(orderService)
	wsHandler := realtime.NewHandler(registry, orderService, log)

	sessionAuth := middleware.SessionAuth(identityService)
	ownerOnly := middleware.RBAC("owner")

	// --- User routes ---
	e.POST("/users/register", userHandler.Register)

	// --- Order routes ---
	e.POST("/orders/create", orderHandler.Create)
	e.GET("/orders/my", orderHandler.My, sessionAuth)
	e.GET("/orders/all", orderHandler.All, sessionAuth, ownerOnly)
	e.GET("/orders/paid", orderHandler.Paid, sessionAuth, ownerOnly)
	e.GET("/orders/unpaid", orderHandler.Unpaid, sessionAuth, ownerOnly)
	e.GET("/orders/balances", balanceHandler.List, sessionAuth, ownerOnly)
	e.POST("/orders/balances/mark-paid", balanceHandler.MarkPaid, sessionAuth, ownerOnly)
	e.GET("/orders/:id", orderHandler.Get)

	// --- Realtime channel ---
	e.GET("/ws", wsHandler.Serve)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
