package handlers

import (
	"fmt"
	"net/http"

	"stars_wallet/internal/logger"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CreateInvoice выпускает ссылку на инвойс Telegram Stars
func (h *Handler) CreateInvoice(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req struct {
		AmountStars int64 `json:"amount_stars"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.AmountStars <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "BAD_AMOUNT"})
		return
	}

	link, err := h.Topup.CreateInvoiceLink(tgID, req.AmountStars)
	if err != nil {
		logger.Error("создание инвойса", "tg_id", tgID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "invoice_link": link})
}

// TelegramWebhook принимает апдейты платежей от телеграма.
// защищен статическим секретом, телеграм ходит сюда без init_data
func (h *Handler) TelegramWebhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}

	if update.PreCheckoutQuery != nil {
		h.Topup.AnswerPreCheckout(update.PreCheckoutQuery.ID)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if update.Message != nil && update.Message.SuccessfulPayment != nil {
		payment := update.Message.SuccessfulPayment
		err := h.Topup.HandleSuccessfulPayment(
			c.Request.Context(),
			update.Message.From.ID,
			int64(payment.TotalAmount),
			payment.TelegramPaymentChargeID,
		)
		if err != nil {
			logger.Error("зачисление stars платежа", "charge_id", payment.TelegramPaymentChargeID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DepositInfo отдает адрес ton кошелька и memo для пополнения
func (h *Handler) DepositInfo(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	if h.TonWallet == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "TON_DISABLED"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"wallet":        h.TonWallet,
		"memo":          fmt.Sprintf("topup:%d", tgID),
		"stars_per_ton": h.StarsPerTON,
	})
}
