package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"stars_wallet/internal/config"
	"stars_wallet/internal/http/handlers"
	"stars_wallet/internal/http/middleware"
	"stars_wallet/internal/logger"
	"stars_wallet/internal/repository"
	"stars_wallet/internal/service"
	"stars_wallet/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutesWithConfig собирает сервисы и вешает все маршруты.
// возвращает Handler, чтобы main мог довесить коллбеки бота и вотчера
func RegisterRoutesWithConfig(r *gin.Engine, db *pgxpool.Pool, botToken, version string, cfg *config.Config) *handlers.Handler {
	audit := service.NewAuditService(db)
	balance := service.NewBalanceService(db, cfg.StarsPerRub)
	transfer := service.NewTransferService(db, audit, cfg.StarsPerRub, cfg.TransferNoteLimit)
	topup := service.NewTopupService(botToken, balance, audit)
	promo := service.NewPromoService(db, balance, audit)
	tasks := service.NewTaskService(botToken, db, balance, audit)
	gifts := service.NewGiftService(db, balance, audit)
	roulette := service.NewRouletteService(db, balance, audit)
	requests := service.NewRequestService(db, audit)
	admin := service.NewAdminService(db, balance, audit)

	hub := ws.NewHub()
	notify := service.NewNotifyService(botToken)

	// уведомление получателя и пуш баланса не блокируют перевод
	transfer.SetNotifyCallback(notify.TransferReceived)
	transfer.SetBalanceCallback(func(tgID int64) {
		pushBalance(hub, balance, tgID)
	})
	topup.SetCreditedCallback(func(tgID int64, amount int64) {
		notify.TopupCredited(tgID, amount)
		pushBalance(hub, balance, tgID)
	})
	admin.SetResolveCallback(func(tgID int64, requestID int64, paid bool, reason string) {
		notify.RequestResolved(tgID, requestID, paid, reason)
		pushBalance(hub, balance, tgID)
	})

	h := &handlers.Handler{
		DB:          db,
		Balance:     balance,
		Transfer:    transfer,
		Topup:       topup,
		Promo:       promo,
		Tasks:       tasks,
		Gifts:       gifts,
		Roulette:    roulette,
		Requests:    requests,
		Admin:       admin,
		Audit:       audit,
		Hub:         hub,
		Version:     version,
		TonWallet:   cfg.TonPlatformWallet,
		StarsPerTON: cfg.StarsPerTON,
	}

	userRepo := repository.NewUserRepository(db)
	auth := middleware.Auth(
		&middleware.StaticSecretAuth{Secret: cfg.CronSecret},
		&middleware.JWTAuth{AdminIDs: cfg.AdminTelegramIDs},
		&middleware.InitDataAuth{
			BotToken: botToken,
			MaxAge:   cfg.InitDataMaxAge,
			AdminIDs: cfg.AdminTelegramIDs,
			Users:    userRepo,
		},
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	// телеграм ходит на вебхук без init_data, защита секретным заголовком
	r.POST("/webhook/telegram", webhookGuard(cfg.CronSecret), h.TelegramWebhook)

	api := r.Group("/api")
	api.Use(auth)
	{
		api.POST("/auth/login", h.Login)

		api.GET("/profile", h.MyProfile)
		api.GET("/balance", h.MyBalance)
		api.GET("/history", h.TransferHistory)
		api.GET("/ws", h.BalanceWS)

		api.POST("/transfer", middleware.RateLimit(20, time.Minute), h.TransferStars)

		api.POST("/topup/invoice", middleware.RateLimit(10, time.Minute), h.CreateInvoice)
		api.GET("/topup/deposit", h.DepositInfo)

		api.POST("/requests", middleware.RateLimit(5, time.Minute), h.SubmitRequest)
		api.GET("/requests", h.MyRequests)

		api.POST("/promo/redeem", middleware.RateLimit(10, time.Minute), h.RedeemPromo)

		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks/:id/complete", middleware.RateLimit(10, time.Minute), h.CompleteTask)

		api.GET("/roulette", h.RouletteConfig)
		api.POST("/roulette/spin", middleware.RateLimit(30, time.Minute), h.SpinRoulette)

		api.GET("/gifts", h.GiftCatalog)
		api.GET("/gifts/my", h.MyGifts)
		api.POST("/gifts/:id/buy", h.BuyGift)
		api.POST("/gifts/:id/sell", h.SellGift)
	}

	adminGroup := r.Group("/api/admin")
	adminGroup.Use(auth, middleware.AdminRequired())
	{
		adminGroup.GET("/stats", h.AdminStats)
		adminGroup.GET("/requests", h.AdminPendingRequests)
		adminGroup.POST("/requests/:id/approve", h.AdminApproveRequest)
		adminGroup.POST("/requests/:id/reject", h.AdminRejectRequest)
		adminGroup.POST("/users/:id/ban", h.AdminBanUser)
		adminGroup.POST("/users/:id/unban", h.AdminUnbanUser)
		adminGroup.POST("/users/:id/verify", h.AdminVerifyUser)
		adminGroup.POST("/users/:id/role", h.AdminSetRole)
		adminGroup.POST("/users/:id/limit", h.AdminSetWalletLimit)
		adminGroup.POST("/users/:id/adjust", h.AdminAdjustBalance)
		adminGroup.POST("/users/:id/rebuild-cache", h.AdminRebuildCache)
		adminGroup.GET("/audit", h.AdminAuditLogs)
	}

	return h
}

func pushBalance(hub *ws.Hub, balance *service.BalanceService, tgID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	value, err := balance.Balance(ctx, tgID)
	if err != nil {
		logger.Debug("пуш баланса: чтение ledger", "tg_id", tgID, "error", err)
		return
	}
	hub.PushBalance(tgID, value)
}

// сверяет X-Telegram-Bot-Api-Secret-Token, при пустом секрете вебхук открыт
func webhookGuard(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		presented := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}
