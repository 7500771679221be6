package handlers

import (
	"net/http"
	"strconv"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// tg_id админа из контекста. 0 для вызовов по статическому секрету
func adminTgID(c *gin.Context) int64 {
	if identity := middleware.GetIdentity(c); identity != nil {
		return identity.TgID
	}
	return 0
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// AdminStats - сводка для панели
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": stats})
}

// AdminPendingRequests - необработанные заявки на выплату
func (h *Handler) AdminPendingRequests(c *gin.Context) {
	requests, err := h.Admin.PendingRequests(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "requests": requests})
}

// AdminApproveRequest помечает заявку оплаченной и проводит выплату по ledger
func (h *Handler) AdminApproveRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "REQUEST_NOT_FOUND"})
		return
	}

	request, err := h.Admin.ApproveRequest(c.Request.Context(), adminTgID(c), id)
	if err != nil {
		respondWalletError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "request": request})
}

// AdminRejectRequest отклоняет заявку с причиной
func (h *Handler) AdminRejectRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "REQUEST_NOT_FOUND"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	request, err := h.Admin.RejectRequest(c.Request.Context(), adminTgID(c), id, req.Reason)
	if err != nil {
		respondWalletError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "request": request})
}

// AdminBanUser банит пользователя, переводы для него закрываются
func (h *Handler) AdminBanUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.Admin.BanUser(c.Request.Context(), adminTgID(c), id, req.Reason); err != nil {
		respondWalletError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) AdminUnbanUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	if err := h.Admin.UnbanUser(c.Request.Context(), adminTgID(c), id); err != nil {
		respondWalletError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) AdminVerifyUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	var req struct {
		Verified bool `json:"verified"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "BAD_AMOUNT"})
		return
	}

	if err := h.Admin.VerifyUser(c.Request.Context(), adminTgID(c), id, req.Verified); err != nil {
		respondWalletError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) AdminSetRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Role != string(domain.RoleUser) && req.Role != string(domain.RoleAdmin)) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "BAD_ROLE"})
		return
	}

	if err := h.Admin.SetRole(c.Request.Context(), adminTgID(c), id, domain.Role(req.Role)); err != nil {
		respondWalletError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) AdminSetWalletLimit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	var req struct {
		Limited bool  `json:"limited"`
		Limit   int64 `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "BAD_AMOUNT"})
		return
	}

	if err := h.Admin.SetWalletLimit(c.Request.Context(), adminTgID(c), id, req.Limited, req.Limit); err != nil {
		respondWalletError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AdminAdjustBalance - ручная корректировка, пишется в ledger как admin_adjust
func (h *Handler) AdminAdjustBalance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	var req struct {
		DeltaStars int64  `json:"delta_stars"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "BAD_AMOUNT"})
		return
	}

	if err := h.Admin.AdjustBalance(c.Request.Context(), adminTgID(c), id, req.DeltaStars, req.Reason); err != nil {
		respondWalletError(c, err)
		return
	}

	balance, _ := h.Admin.GetBalance(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"ok": true, "balance": balance})
}

// AdminRebuildCache пересобирает кэш баланса из ledger
func (h *Handler) AdminRebuildCache(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "NO_USER"})
		return
	}

	balance, err := h.Balance.RebuildCache(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "balance": balance})
}

// AdminAuditLogs - последние записи аудита, опционально по категории
func (h *Handler) AdminAuditLogs(c *gin.Context) {
	ctx := c.Request.Context()
	if category := c.Query("category"); category != "" {
		logs, err := h.Audit.GetLogsByCategory(ctx, category, 200)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "logs": logs})
		return
	}

	logs, err := h.Audit.GetRecentLogs(ctx, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "logs": logs})
}
