package handlers

import (
	"errors"
	"net/http"

	"stars_wallet/internal/http/middleware"
	"stars_wallet/internal/service"
	"stars_wallet/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler держит сервисы, общие для всех маршрутов
type Handler struct {
	DB       *pgxpool.Pool
	Balance  *service.BalanceService
	Transfer *service.TransferService
	Topup    *service.TopupService
	Promo    *service.PromoService
	Tasks    *service.TaskService
	Gifts    *service.GiftService
	Roulette *service.RouletteService
	Requests *service.RequestService
	Admin    *service.AdminService
	Audit    *service.AuditService
	Hub      *ws.Hub
	Version  string

	// параметры ton пополнений для фронтенда
	TonWallet   string
	StarsPerTON int64
}

// tg_id проверенной личности. false для вызовов по статическому секрету
func getTgID(c *gin.Context) (int64, bool) {
	identity := middleware.GetIdentity(c)
	if identity == nil || identity.TgID == 0 {
		return 0, false
	}
	return identity.TgID, true
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "NO_AUTH"})
}

// единое отображение ошибок кошелька в http статусы.
// тело всегда {"ok": false, "error": "<КОД>"}
func respondWalletError(c *gin.Context, err error) {
	var insufficient *service.InsufficientFundsError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"ok":        false,
			"error":     insufficient.Error(),
			"balance":   insufficient.Balance,
			"shortfall": insufficient.Shortfall,
		})
		return
	}

	var walletErr *service.WalletError
	if errors.As(err, &walletErr) {
		c.JSON(walletErrorStatus(walletErr), gin.H{"ok": false, "error": walletErr.Code})
		return
	}

	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		status := http.StatusUnauthorized
		if authErr == service.ErrForbidden || authErr == service.ErrFromIDMismatch {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"ok": false, "error": authErr.Code})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
}

func walletErrorStatus(err *service.WalletError) int {
	switch err {
	case service.ErrSenderNotFound, service.ErrReceiverNotFound,
		service.ErrPromoNotFound, service.ErrTaskNotFound,
		service.ErrRequestNotFound, service.ErrGiftNotFound, service.ErrGiftNotOwned:
		return http.StatusNotFound
	case service.ErrSenderBanned, service.ErrReceiverBanned, service.ErrWalletLimited:
		return http.StatusForbidden
	case service.ErrLedgerWriteFailed:
		return http.StatusInternalServerError
	default:
		// BAD_AMOUNT, BAD_IDS, SELF_TRANSFER_FORBIDDEN и конфликты повторных операций
		return http.StatusBadRequest
	}
}
