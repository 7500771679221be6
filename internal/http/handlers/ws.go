package handlers

import (
	"net/http"

	"stars_wallet/internal/logger"
	"stars_wallet/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// аутентификация уже прошла в middleware, origin проверяет cors
	CheckOrigin: func(r *http.Request) bool { return true },
}

// BalanceWS апгрейдит соединение и подписывает клиента на пуши баланса
func (h *Handler) BalanceWS(c *gin.Context) {
	tgID, ok := getTgID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("ws upgrade", "tg_id", tgID, "error", err)
		return
	}

	client := ws.NewClient(tgID, conn, h.Hub)
	go client.Run()
}
