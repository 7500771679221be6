package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouletteConfig - сектора и цена вращения для фронтенда
func (h *Handler) RouletteConfig(c *gin.Context) {
	cost, sectors := h.Roulette.Sectors()
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"spin_cost": cost,
		"sectors":   sectors,
	})
}

// SpinRoulette крутит рулетку, списание и приз в одной транзакции
func (h *Handler) SpinRoulette(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	result, err := h.Roulette.Spin(c.Request.Context(), tgID)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "spin": result})
}
