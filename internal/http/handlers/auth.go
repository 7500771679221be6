package handlers

import (
	"net/http"

	"stars_wallet/internal/http/middleware"
	"stars_wallet/internal/service"

	"github.com/gin-gonic/gin"
)

// Login обменивает проверенный init_data на сессионный jwt.
// сам init_data уже проверен в middleware, здесь только выпуск токена
func (h *Handler) Login(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil || identity.TgID == 0 {
		respondUnauthorized(c)
		return
	}

	token, err := service.IssueToken(identity.TgID, identity.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}

	h.Audit.LogLogin(c.Request.Context(), identity.TgID, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"token": token,
		"tg_id": identity.TgID,
		"role":  identity.Role,
	})
}
