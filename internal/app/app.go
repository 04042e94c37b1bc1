package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/storefront-auth/internal/config"
	"github.com/prperemyshlev/storefront-auth/internal/handler"
	"github.com/prperemyshlev/storefront-auth/internal/notification"
	"github.com/prperemyshlev/storefront-auth/internal/repository"
	"github.com/prperemyshlev/storefront-auth/internal/service"
	"github.com/prperemyshlev/storefront-auth/internal/utils"
	"github.com/prperemyshlev/storefront-auth/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	sweeper *service.SpecialTokenSweeper
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	store := repository.NewStore(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		utils.TokenSettings{Secret: cfg.JWT.AccessSecret, Expiry: cfg.JWT.AccessTokenExpiry.Duration},
		utils.TokenSettings{Secret: cfg.JWT.RefreshSecret, Expiry: cfg.JWT.RefreshTokenExpiry.Duration},
		utils.TokenSettings{Secret: cfg.JWT.SpecialSecret, Expiry: cfg.JWT.SpecialTokenExpiry.Duration},
	)

	sink, err := notification.New(cfg.SMS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification sink: %w", err)
	}

	metrics, err := observability.NewAuthMetrics(infra.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth metrics: %w", err)
	}

	otpLimiter := service.NewOTPLimiter(infra.Redis(), cfg.Security.OTPMaxAttempts)
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		store.Repositories,
		store,
		jwtManager,
		sink,
		otpLimiter,
		metrics,
		logger,
		cfg.Security.BCryptCost,
	)
	userService := service.NewUserService(store.User)

	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, logger, authHandler, userHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		sweeper: service.NewSpecialTokenSweeper(store.SpecialToken, cfg.Security.SpecialTokenSweepInterval.Duration, logger),
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	limited := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.RouteIPKey,
		logger,
	)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/sign-in", limited, authHandler.SignIn)
			auth.POST("/sign-in/verify-otp", limited, authHandler.VerifySignInOtp)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/verify", authHandler.Verify)

			auth.POST("/sign-up", limited, authHandler.SignUp)
			auth.POST("/sign-up/verify-otp", limited, authHandler.VerifySignUpOtp)
			auth.POST("/sign-up/setup-password", authHandler.SetupPassword)

			auth.POST("/password-reset", limited, authHandler.RequestPasswordReset)
			auth.POST("/password-reset/verify-otp", limited, authHandler.VerifyPasswordResetOtp)
			auth.POST("/password-reset/setup-password", authHandler.SetupNewPassword)
		}

		users := api.Group("/users", handler.AuthMiddleware(authService, logger))
		{
			users.GET("", userHandler.FindUser)
			users.GET("/me", userHandler.GetMe)
			users.PATCH("/me", userHandler.UpdateMe)
			users.GET("/:id", userHandler.GetUser)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sweeper.Run(sweepCtx)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopSweeper()

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("HTTP server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
