package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TopupService выставляет инвойсы в Telegram Stars и начисляет оплаты
type TopupService struct {
	bot     *tgbotapi.BotAPI
	balance *BalanceService
	audit   *AuditService

	// callback для уведомления пользователя о зачислении
	creditedCallback func(tgID int64, amount int64)
}

func NewTopupService(botToken string, balance *BalanceService, audit *AuditService) *TopupService {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		logger.Warn("topup: бот недоступен, инвойсы отключены", "error", err)
		bot = nil
	}
	return &TopupService{
		bot:     bot,
		balance: balance,
		audit:   audit,
	}
}

func (s *TopupService) SetCreditedCallback(cb func(tgID int64, amount int64)) {
	s.creditedCallback = cb
}

// CreateInvoiceLink создает ссылку на оплату в Telegram Stars.
// метод createInvoiceLink новее нашей версии клиента, зовем его напрямую
func (s *TopupService) CreateInvoiceLink(tgID int64, amountStars int64) (string, error) {
	if s.bot == nil {
		return "", fmt.Errorf("бот не инициализирован")
	}
	if amountStars <= 0 {
		return "", ErrBadAmount
	}

	prices, _ := json.Marshal([]map[string]interface{}{
		{"label": fmt.Sprintf("%d ⭐", amountStars), "amount": amountStars},
	})

	params := tgbotapi.Params{
		"title":       "Пополнение баланса",
		"description": fmt.Sprintf("Пополнение кошелька на %d звезд", amountStars),
		"payload":     "topup:" + strconv.FormatInt(tgID, 10),
		"currency":    "XTR",
		"prices":      string(prices),
	}

	resp, err := s.bot.MakeRequest("createInvoiceLink", params)
	if err != nil {
		return "", err
	}

	var link string
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", err
	}
	return link, nil
}

// AnswerPreCheckout подтверждает pre-checkout запрос телеграма
func (s *TopupService) AnswerPreCheckout(queryID string) {
	if s.bot == nil {
		return
	}
	if _, err := s.bot.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 true,
	}); err != nil {
		logger.Error("не удалось ответить на pre-checkout", "error", err)
	}
}

// HandleSuccessfulPayment начисляет оплаченные звезды.
// начисление идемпотентно по telegram_payment_charge_id: вставка в ledger
// упирается в уникальный индекс по charge_id, так что две одновременные
// доставки одного webhook дают ровно одну запись
func (s *TopupService) HandleSuccessfulPayment(ctx context.Context, tgID int64, totalAmount int64, chargeID string) error {
	if chargeID == "" || totalAmount <= 0 {
		return ErrBadAmount
	}

	_, credited, err := s.balance.CreditOnce(ctx, tgID, totalAmount, domain.LedgerStarsTopup, map[string]interface{}{
		"charge_id": chargeID,
	})
	if err != nil {
		return err
	}
	if !credited {
		logger.Info("повторная доставка платежа, пропускаем", "charge_id", chargeID)
		return nil
	}

	if s.audit != nil {
		s.audit.Log(ctx, tgID, domain.AuditActionStarsTopup, domain.AuditCategoryTopup, map[string]interface{}{
			"amount_stars": totalAmount,
			"charge_id":    chargeID,
		})
	}
	if s.creditedCallback != nil {
		s.creditedCallback(tgID, totalAmount)
	}

	logger.Info("stars topup начислен", "tg_id", tgID, "amount", totalAmount)
	return nil
}
