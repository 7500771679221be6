package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/logger"
	"stars_wallet/internal/repository"
	"stars_wallet/internal/ton"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionSource отдает входящие транзакции аккаунта, обычно это *ton.Client
type TransactionSource interface {
	GetTransactions(ctx context.Context, account string, afterLt int64, limit int) ([]ton.Transaction, error)
}

// DepositWatcher отслеживает входящие TON транзакции на кошелек платформы
// и начисляет звезды по memo вида "topup:<tg_id>"
type DepositWatcher struct {
	tonClient      TransactionSource
	userRepo       *repository.UserRepository
	ledgerRepo     *repository.LedgerRepository
	balance        *BalanceService
	audit          *AuditService
	platformWallet string
	starsPerTON    int64
	interval       time.Duration

	lastLt int64 // последнее обработанное логическое время

	mu      sync.Mutex
	stop    chan struct{}
	running bool

	// callback уведомления о зачислении
	creditedCallback func(n DepositNotification)
}

// DepositNotification - данные зачисленного депозита для уведомлений
type DepositNotification struct {
	TgID          int64
	AmountTON     float64
	StarsCredited int64
	TxHash        string
}

func NewDepositWatcher(db *pgxpool.Pool, tonClient TransactionSource, balance *BalanceService, audit *AuditService, platformWallet string, starsPerTON int64, interval time.Duration) *DepositWatcher {
	return &DepositWatcher{
		tonClient:      tonClient,
		userRepo:       repository.NewUserRepository(db),
		ledgerRepo:     repository.NewLedgerRepository(db),
		balance:        balance,
		audit:          audit,
		platformWallet: platformWallet,
		starsPerTON:    starsPerTON,
		interval:       interval,
		stop:           make(chan struct{}),
	}
}

func (w *DepositWatcher) SetCreditedCallback(cb func(n DepositNotification)) {
	w.creditedCallback = cb
}

// Start запускает watcher в фоновом режиме
func (w *DepositWatcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	logger.Info("запуск deposit watcher", "wallet", w.platformWallet, "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			logger.Info("deposit watcher остановлен")
			return
		case <-ticker.C:
			w.checkOnce()
		}
	}
}

// Stop останавливает watcher
func (w *DepositWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stop)
}

func (w *DepositWatcher) checkOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	txs, err := w.tonClient.GetTransactions(ctx, w.platformWallet, w.lastLt, 50)
	if err != nil {
		logger.Error("не удалось получить транзакции", "error", err)
		return
	}

	// lastLt продвигается только после успешной обработки: при временной
	// ошибке базы транзакция будет перечитана на следующем тике, а от
	// повторного начисления защищает дедупликация по хэшу
	for _, tx := range txs {
		if err := w.processTransaction(ctx, &tx); err != nil {
			logger.Error("обработка депозита не удалась, повторим", "error", err, "hash", tx.Hash)
			return
		}
		if tx.Lt > w.lastLt {
			w.lastLt = tx.Lt
		}
	}
}

// обрабатывает одну входящую транзакцию. начисление идемпотентно
// по хэшу: повторная обработка того же hash не создает вторую запись.
// nil означает "обработана или пропущена навсегда", ошибка - временный
// сбой, после которого транзакцию нужно перечитать
func (w *DepositWatcher) processTransaction(ctx context.Context, tx *ton.Transaction) error {
	if !tx.Success || tx.InMsg == nil || tx.InMsg.Bounced {
		return nil
	}
	if tx.InMsg.Value < ton.MinDepositNano {
		return nil
	}

	tgID, ok := parseTopupMemo(tx.InMsg)
	if !ok {
		logger.Debug("депозит без валидного memo, пропускаем", "hash", tx.Hash)
		return nil
	}

	seen, err := w.ledgerRepo.ExistsByMetaKey(ctx, "ton_tx_hash", tx.Hash)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	user, err := w.userRepo.GetByTgID(ctx, tgID)
	if err != nil {
		return err
	}
	if user == nil {
		logger.Warn("депозит для неизвестного tg_id", "tg_id", tgID, "hash", tx.Hash)
		return nil
	}

	stars := ton.NanoToStars(tx.InMsg.Value, w.starsPerTON)
	if stars <= 0 {
		return nil
	}

	if _, err := w.balance.Credit(ctx, tgID, stars, domain.LedgerTonTopup, map[string]interface{}{
		"ton_tx_hash": tx.Hash,
		"amount_nano": tx.InMsg.Value,
	}); err != nil {
		return err
	}

	if w.audit != nil {
		w.audit.Log(ctx, tgID, domain.AuditActionTonTopup, domain.AuditCategoryTopup, map[string]interface{}{
			"ton_tx_hash":  tx.Hash,
			"amount_nano":  tx.InMsg.Value,
			"amount_stars": stars,
		})
	}
	if w.creditedCallback != nil {
		w.creditedCallback(DepositNotification{
			TgID:          tgID,
			AmountTON:     ton.NanoToTON(tx.InMsg.Value),
			StarsCredited: stars,
			TxHash:        tx.Hash,
		})
	}

	logger.Info("TON депозит начислен", "tg_id", tgID, "stars", stars, "hash", tx.Hash)
	return nil
}

// parseTopupMemo достает tg_id из текстового memo "topup:<tg_id>"
func parseTopupMemo(msg *ton.Message) (int64, bool) {
	if msg.DecodedBody == nil {
		return 0, false
	}
	text := strings.TrimSpace(msg.DecodedBody.Text)
	if !strings.HasPrefix(text, "topup:") {
		return 0, false
	}
	tgID, err := strconv.ParseInt(strings.TrimPrefix(text, "topup:"), 10, 64)
	if err != nil || tgID <= 0 {
		return 0, false
	}
	return tgID, true
}
