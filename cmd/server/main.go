package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/admin"
	"github.com/sudo-init-do/tradebit/internal/alerts"
	"github.com/sudo-init-do/tradebit/internal/auth"
	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/earn"
	"github.com/sudo-init-do/tradebit/internal/jobs"
	"github.com/sudo-init-do/tradebit/internal/kyc"
	"github.com/sudo-init-do/tradebit/internal/logger"
	"github.com/sudo-init-do/tradebit/internal/market"
	mware "github.com/sudo-init-do/tradebit/internal/middleware"
	"github.com/sudo-init-do/tradebit/internal/ticker"
	"github.com/sudo-init-do/tradebit/internal/trade"
	"github.com/sudo-init-do/tradebit/internal/user"
	"github.com/sudo-init-do/tradebit/internal/wallet"
)

func main() {
	config.Load()
	logger.Init()
	db.Init()
	market.Init()

	if err := alerts.ConfigureMailerFromEnv(); err != nil {
		logger.Log.Warn("mailer not configured, emails will fail until it is", zap.Error(err))
	}

	// Background workers: register handlers before the mux starts consuming.
	jobs.Init()
	alerts.RegisterHandlers()
	trade.RegisterHandlers()
	jobs.Start()

	// Recover positions whose settlement tasks were lost, then keep sweeping.
	if n, err := trade.SweepOverdue(context.Background()); err != nil {
		logger.Log.Warn("startup trade sweep failed", zap.Error(err))
	} else if n > 0 {
		logger.Log.Info("recovered overdue trades at startup", zap.Int("count", n))
	}
	trade.StartSweeper(config.App.SweepInterval)
	ticker.StartBroadcast(3 * time.Second)

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Uploaded avatars and KYC documents
	e.Static("/uploads", config.App.UploadDir)

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "tradebit"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/password/request", auth.RequestPasswordReset)
	authGroup.POST("/password/reset", auth.ResetPassword)
	authGroup.POST("/bootstrap-admin", auth.BootstrapAdmin)

	e.GET("/user/:id/profile", user.GetPublicProfile)

	e.GET("/market/prices", market.Prices)
	e.GET("/market/listings", market.Listings)
	e.GET("/ws/prices", ticker.PricesWS)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)
	api.POST("/auth/verify", auth.VerifyEmail)
	api.POST("/auth/resend", auth.ResendCode)

	api.PATCH("/user/profile", user.UpdateProfile)
	api.POST("/user/avatar", user.UploadAvatar)

	api.GET("/wallet/balances", wallet.Balances)
	api.POST("/wallet/deposits", wallet.RequestDeposit)
	api.GET("/wallet/deposits", wallet.MyDeposits)
	api.POST("/wallet/withdrawals", wallet.RequestWithdrawal)
	api.GET("/wallet/withdrawals", wallet.MyWithdrawals)
	api.POST("/wallet/convert", wallet.Convert)
	api.GET("/wallet/history", wallet.History)

	api.POST("/trades", trade.OpenTrade)
	api.GET("/trades", trade.MyTrades)

	api.POST("/earn/deposit", earn.Deposit)
	api.POST("/earn/withdraw", earn.Withdraw)
	api.GET("/earn/positions", earn.Positions)

	api.POST("/kyc", kyc.Submit)
	api.GET("/kyc", kyc.Status)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
	adminGroup.POST("/users/:id/activate", admin.ActivateUser)
	adminGroup.DELETE("/users/:id", admin.DeleteUser)
	adminGroup.GET("/users/:id/balances", admin.ListUserBalances)

	adminGroup.GET("/deposits", wallet.ListDeposits)
	adminGroup.POST("/deposits/:id/approve", wallet.ApproveDeposit)
	adminGroup.POST("/deposits/:id/reject", wallet.RejectDeposit)
	adminGroup.GET("/withdrawals", wallet.ListWithdrawals)
	adminGroup.POST("/withdrawals/:id/approve", wallet.ApproveWithdrawal)
	adminGroup.POST("/withdrawals/:id/reject", wallet.RejectWithdrawal)

	adminGroup.GET("/kyc/pending", kyc.ListPending)
	adminGroup.POST("/kyc/:id/approve", kyc.Approve)
	adminGroup.POST("/kyc/:id/reject", kyc.Reject)

	adminGroup.GET("/trades", admin.ListTrades)
	adminGroup.GET("/trade-mode", admin.GetTradeMode)
	adminGroup.PUT("/trade-mode", admin.SetTradeMode)
	adminGroup.PUT("/users/:id/trade-mode", admin.SetUserTradeMode)
	adminGroup.DELETE("/users/:id/trade-mode", admin.ClearUserTradeMode)

	// Start server, then drain on SIGINT/SIGTERM
	go func() {
		if err := e.Start(":" + config.App.Port); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutdown started")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Log.Error("shutdown error", zap.Error(err))
	}
	jobs.Close()
	logger.Log.Info("shutdown complete")
}
