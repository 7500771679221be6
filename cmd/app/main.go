package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stars_wallet/internal/bot"
	"stars_wallet/internal/config"
	"stars_wallet/internal/db"
	httpServer "stars_wallet/internal/http"
	"stars_wallet/internal/http/middleware"
	"stars_wallet/internal/logger"
	"stars_wallet/internal/service"
	"stars_wallet/internal/ton"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	// Инициализация структурированного логгера
	jsonLogs := os.Getenv("LOG_FORMAT") == "json"
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(logLevel, jsonLogs)
	log := logger.Get()

	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	r := gin.Default()

	// CORS для прода и связи фронта с бэкендом(разные домены)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Telegram-Init-Data, X-Cron-Secret")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, 0)
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := httpServer.RegisterRoutesWithConfig(r, dbPool, cfg.BotToken, Version, cfg)

	// Запуск админ бота ПЕРЕД HTTP сервером чтобы callback был установлен
	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled && len(cfg.AdminTelegramIDs) > 0 {
		var err error
		adminBot, err = bot.NewAdminBot(cfg.BotToken, h.Admin, cfg.AdminTelegramIDs)
		if err != nil {
			log.Error("failed to start admin bot", "error", err)
		} else {
			go adminBot.Start()
			log.Info("admin bot started", "admin_ids", cfg.AdminTelegramIDs)

			// Уведомление всем админам бота о новой заявке на выплату
			h.Requests.SetNewRequestCallback(adminBot.NotifyAdminsNewRequest)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	// Запуск deposit watcher для автоматической обработки TON депозитов
	var depositWatcher *service.DepositWatcher
	if cfg.TonPlatformWallet != "" {
		network := ton.NetworkMainnet
		if cfg.TonTestnet {
			network = ton.NetworkTestnet
		}
		tonClient := ton.NewClient(network, cfg.TonAPIKey)

		depositWatcher = service.NewDepositWatcher(
			dbPool,
			tonClient,
			h.Balance,
			h.Audit,
			cfg.TonPlatformWallet,
			cfg.StarsPerTON,
			ton.DepositCheckInterval,
		)

		// Уведомления о зачислении: websocket пуш и сообщение админам
		depositWatcher.SetCreditedCallback(func(n service.DepositNotification) {
			if balance, err := h.Balance.Balance(context.Background(), n.TgID); err == nil {
				h.Hub.PushBalance(n.TgID, balance)
			}
			if adminBot != nil {
				adminBot.NotifyAdminsDeposit(n.TgID, n.AmountTON, n.StarsCredited, n.TxHash)
			}
		})

		go depositWatcher.Start()
		log.Info("deposit watcher запущен", "wallet", cfg.TonPlatformWallet, "interval", ton.DepositCheckInterval)
	} else {
		log.Warn("deposit watcher не запущен: TON_PLATFORM_WALLET не настроен")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Плавная остановка бота
	if adminBot != nil {
		adminBot.Stop()
	}

	// Плавная остановка deposit watcher
	if depositWatcher != nil {
		depositWatcher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
