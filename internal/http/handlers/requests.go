package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubmitRequest создает заявку на выплату. payload хранится как есть
func (h *Handler) SubmitRequest(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req struct {
		Payload     string `json:"payload"`
		AmountStars int64  `json:"amount_stars"`
		Comment     string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "BAD_AMOUNT"})
		return
	}

	request, err := h.Requests.Submit(c.Request.Context(), tgID, req.Payload, req.AmountStars, req.Comment)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "request": request})
}

// MyRequests - заявки текущего пользователя
func (h *Handler) MyRequests(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	requests, err := h.Requests.ListMine(c.Request.Context(), tgID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "SERVER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "requests": requests})
}
