package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GiftCatalog - активные подарки магазина
func (h *Handler) GiftCatalog(c *gin.Context) {
	gifts, err := h.Gifts.Catalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "gifts": gifts})
}

// MyGifts - купленные подарки пользователя
func (h *Handler) MyGifts(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	owned, err := h.Gifts.Owned(c.Request.Context(), tgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "gifts": owned})
}

// BuyGift покупает подарок, списание через ledger
func (h *Handler) BuyGift(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	giftID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || giftID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "GIFT_NOT_FOUND"})
		return
	}

	owned, err := h.Gifts.Buy(c.Request.Context(), tgID, giftID)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	balance, _ := h.Balance.Balance(c.Request.Context(), tgID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "gift": owned, "balance": balance})
}

// SellGift продает подарок обратно по sell цене
func (h *Handler) SellGift(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	ownedID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || ownedID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "GIFT_NOT_OWNED"})
		return
	}

	entry, err := h.Gifts.Sell(c.Request.Context(), tgID, ownedID)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	balance, _ := h.Balance.Balance(c.Request.Context(), tgID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "sold_stars": entry.AmountStars, "balance": balance})
}
