package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListTasks - активные задания с прогрессом пользователя
func (h *Handler) ListTasks(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	tasks, err := h.Tasks.List(c.Request.Context(), tgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": tasks})
}

// CompleteTask проверяет подписку на канал и начисляет награду
func (h *Handler) CompleteTask(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "TASK_NOT_FOUND"})
		return
	}

	entry, err := h.Tasks.Complete(c.Request.Context(), tgID, taskID)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	balance, _ := h.Balance.Balance(c.Request.Context(), tgID)
	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"reward_stars": entry.AmountStars,
		"balance":      balance,
	})
}
