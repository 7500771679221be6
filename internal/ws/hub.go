package ws

import (
	"encoding/json"
	"sync"

	"stars_wallet/internal/logger"
)

// Hub держит живые websocket подключения, сгруппированные по tg_id.
// хаб - только канал уведомлений, источником истины он не бывает
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.TgID] == nil {
		h.clients[c.TgID] = make(map[*Client]bool)
	}
	h.clients[c.TgID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[c.TgID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, c.TgID)
		}
	}
}

// PushBalance шлет пользователю событие с актуальным балансом.
// отправка лучшими усилиями: переполненный канал просто пропускается
func (h *Hub) PushBalance(tgID int64, balance int64) {
	payload, err := json.Marshal(map[string]interface{}{
		"event":   "balance",
		"balance": balance,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[tgID] {
		select {
		case c.send <- payload:
		default:
			logger.Debug("ws канал переполнен, пуш пропущен", "tg_id", tgID)
		}
	}
}

// количество подключенных клиентов, для отладки
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}
