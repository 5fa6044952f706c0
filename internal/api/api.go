package api

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/planmarket/auth-service/internal/controller"
	"github.com/planmarket/auth-service/internal/ratelimit"
	"github.com/planmarket/auth-service/internal/service"
	"github.com/planmarket/auth-service/internal/storage"
	"github.com/planmarket/auth-service/internal/util"
)

const shutdownTimeout = 5 * time.Second

type API struct {
	server          *echo.Echo
	controller      *controller.Controller
	tokens          *service.TokenService
	sessions        storage.SessionRepository
	limiter         *ratelimit.Limiter
	log             *zap.SugaredLogger
	serverConfig    *util.ServerConfig
	rateConfig      *util.RateLimitConfig
	gracefulTimeout time.Duration
	cleanupFuncs    []func()
}

func NewAPI(
	c *controller.Controller,
	tokens *service.TokenService,
	sessions storage.SessionRepository,
	limiter *ratelimit.Limiter,
	sc *util.ServerConfig,
	rc *util.RateLimitConfig,
	l *zap.SugaredLogger,
	cleanupFuncs []func(),
) *API {
	e := echo.New()

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)
	e.HideBanner = true

	return &API{
		server:          e,
		controller:      c,
		tokens:          tokens,
		sessions:        sessions,
		limiter:         limiter,
		log:             l,
		serverConfig:    sc,
		rateConfig:      rc,
		gracefulTimeout: sc.GracefulTimeout,
		cleanupFuncs:    cleanupFuncs,
	}
}

// SetupRoutes wires the fixed middleware order: security headers, HTTPS
// redirect (production only), CORS, request logging, sanitization, then the
// per-group rate limits, CSRF validation, and route-level bearer checks.
func (a *API) SetupRoutes() {
	if a.serverConfig.IsProduction() {
		a.server.Pre(echomiddleware.HTTPSRedirect())
	}

	a.server.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'self'",
	}))

	if a.serverConfig.CORSOrigin != "" {
		a.server.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     []string{a.serverConfig.CORSOrigin},
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, CSRFHeader},
		}))
	}

	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a)))
	a.server.Use(SanitizeMiddleware())

	g := a.server.Group("/api",
		RateLimitMiddleware(a.limiter, "api", a.rateConfig.APILimit, a.rateConfig.Window),
		CSRFMiddleware(a.sessions),
	)

	controller.RegisterRoutes(g, a.controller, controller.RouteMiddlewares{
		AuthRateLimit: RateLimitMiddleware(a.limiter, "auth", a.rateConfig.AuthLimit, a.rateConfig.Window),
		Bearer:        BearerAuthMiddleware(a.tokens, a.log),
	})
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.SetupRoutes()
	a.ListenGracefulShutdown(ctx)
}

// Server exposes the underlying echo instance for httptest.
func (a *API) Server() *echo.Echo { return a.server }

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Errorf("shutdown: %v", err)
	}

	longShutdown := make(chan struct{}, 1)

	go func() {
		time.Sleep(a.gracefulTimeout)
		longShutdown <- struct{}{}
	}()

	select {
	case <-shutdownCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			a.log.Info("server shutdown completed")
		} else {
			a.log.Errorf("server shutdown: %v", ctx.Err())
		}
	case <-longShutdown:
		a.log.Infof("finished")
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}
