package handlers

import (
	"net/http"

	"stars_wallet/internal/repository"

	"github.com/gin-gonic/gin"
)

// Текущий профиль пользователя с балансом по ledger
func (h *Handler) MyProfile(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	repo := repository.NewUserRepository(h.DB)
	user, err := repo.GetByTgID(ctx, tgID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	balance, err := h.Balance.Balance(ctx, tgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"user":    user,
		"balance": balance,
	})
}

// Баланс отдельным эндпоинтом, считается по ledger а не по кэшу
func (h *Handler) MyBalance(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	balance, err := h.Balance.Balance(c.Request.Context(), tgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "balance": balance})
}
