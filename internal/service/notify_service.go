package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stars_wallet/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NotifyService шлет исходящие сообщения пользователям лучшими усилиями.
// короткий таймаут http клиента, без ретраев: уведомление никогда
// не блокирует и не валит основную операцию
type NotifyService struct {
	bot *tgbotapi.BotAPI
}

func NewNotifyService(botToken string) *NotifyService {
	client := &http.Client{Timeout: notifyTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		logger.Warn("notify: бот недоступен, уведомления отключены", "error", err)
		return &NotifyService{}
	}
	return &NotifyService{bot: bot}
}

// уведомление получателя о входящем переводе
func (s *NotifyService) TransferReceived(ctx context.Context, toTgID int64, amount int64, fromUsername string) {
	from := "@" + fromUsername
	if fromUsername == "" {
		from = "пользователя"
	}
	s.send(toTgID, fmt.Sprintf("Вам перевели %d ⭐ от %s", amount, from))
}

// уведомление о начислении пополнения
func (s *NotifyService) TopupCredited(toTgID int64, amount int64) {
	s.send(toTgID, fmt.Sprintf("Баланс пополнен на %d ⭐", amount))
}

// уведомление об итоге заявки
func (s *NotifyService) RequestResolved(toTgID int64, requestID int64, paid bool, reason string) {
	if paid {
		s.send(toTgID, fmt.Sprintf("Заявка #%d оплачена ✅", requestID))
		return
	}
	msg := fmt.Sprintf("Заявка #%d отклонена ❌", requestID)
	if reason != "" {
		msg += "\nПричина: " + reason
	}
	s.send(toTgID, msg)
}

func (s *NotifyService) send(tgID int64, text string) {
	if s.bot == nil {
		return
	}

	start := time.Now()
	if _, err := s.bot.Send(tgbotapi.NewMessage(tgID, text)); err != nil {
		// проглатываем: получатель мог не начинать диалог с ботом
		logger.Debug("уведомление не доставлено", "tg_id", tgID, "error", err, "took", time.Since(start))
	}
}
