package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RedeemPromo активирует промокод и начисляет бонус
func (h *Handler) RedeemPromo(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "PROMO_NOT_FOUND"})
		return
	}

	entry, err := h.Promo.Redeem(c.Request.Context(), tgID, strings.TrimSpace(req.Code))
	if err != nil {
		respondWalletError(c, err)
		return
	}

	balance, _ := h.Balance.Balance(c.Request.Context(), tgID)
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"bonus_stars": entry.AmountStars,
		"balance":     balance,
	})
}
