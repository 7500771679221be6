package handlers

import (
	"net/http"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/http/middleware"
	"stars_wallet/internal/service"

	"github.com/gin-gonic/gin"
)

// тело перевода. канонические имена плюс легаси алиасы старого фронтенда
type transferBody struct {
	FromTgID    int64  `json:"from_tg_id"`
	ToTgID      int64  `json:"to_tg_id"`
	AmountStars int64  `json:"amount_stars"`
	Note        string `json:"note"`

	// легаси: user_id вместо to_tg_id, amount вместо amount_stars
	LegacyToID   int64 `json:"user_id"`
	LegacyAmount int64 `json:"amount"`
}

func (b *transferBody) normalize() *service.TransferRequest {
	to := b.ToTgID
	if to == 0 {
		to = b.LegacyToID
	}
	amount := b.AmountStars
	if amount == 0 {
		amount = b.LegacyAmount
	}
	return &service.TransferRequest{
		FromTgID:    b.FromTgID,
		ToTgID:      to,
		AmountStars: amount,
		Note:        b.Note,
	}
}

// P2P перевод звезд между пользователями
func (h *Handler) TransferStars(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var body transferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "BAD_AMOUNT"})
		return
	}

	result, err := h.Transfer.Transfer(c.Request.Context(), tgID, body.normalize())
	if err != nil {
		middleware.CountTransfer(err.Error())
		respondWalletError(c, err)
		return
	}
	middleware.CountTransfer("completed")

	c.JSON(http.StatusOK, transferResponse(result))
}

// поля результата лежат на верхнем уровне ответа, без вложенного объекта
func transferResponse(result *domain.TransferResult) gin.H {
	return gin.H{
		"ok":           true,
		"transfer_id":  result.TransferID,
		"from_tg_id":   result.FromTgID,
		"to_tg_id":     result.ToTgID,
		"amount_stars": result.AmountStars,
		"amount_rub":   result.AmountRub,
	}
}

// История операций текущего пользователя
func (h *Handler) TransferHistory(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	entries, err := h.Balance.History(c.Request.Context(), tgID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "history": entries})
}
