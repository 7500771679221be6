package service

import (
	"context"
	"fmt"
	"time"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/logger"
	"stars_wallet/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибка кошелька с машиночитаемым кодом
type WalletError struct {
	Code string
}

func (e *WalletError) Error() string { return e.Code }

var (
	ErrBadAmount             = &WalletError{Code: "BAD_AMOUNT"}
	ErrBadIDs                = &WalletError{Code: "BAD_IDS"}
	ErrSelfTransferForbidden = &WalletError{Code: "SELF_TRANSFER_FORBIDDEN"}
	ErrSenderNotFound        = &WalletError{Code: "SENDER_NOT_FOUND"}
	ErrReceiverNotFound      = &WalletError{Code: "RECEIVER_NOT_FOUND"}
	ErrSenderBanned          = &WalletError{Code: "SENDER_BANNED"}
	ErrReceiverBanned        = &WalletError{Code: "RECEIVER_BANNED"}
	ErrWalletLimited         = &WalletError{Code: "WALLET_LIMITED"}
	ErrLedgerWriteFailed     = &WalletError{Code: "LEDGER_WRITE_FAILED"}
)

// Недостаточно средств: вместе с кодом отдаем текущий баланс и недостачу
type InsufficientFundsError struct {
	Balance   int64
	Shortfall int64
}

func (e *InsufficientFundsError) Error() string { return "INSUFFICIENT_FUNDS" }

// Запрос на p2p перевод. from_tg_id из тела никогда не является источником
// личности, он только сверяется с проверенной
type TransferRequest struct {
	FromTgID    int64
	ToTgID      int64
	AmountStars int64
	Note        string
}

// таймаут на лучшие-усилия уведомление получателя
const notifyTimeout = 800 * time.Millisecond

// TransferService атомарно двигает звезды между пользователями парой записей ledger
type TransferService struct {
	db         *pgxpool.Pool
	userRepo   *repository.UserRepository
	ledgerRepo *repository.LedgerRepository
	audit      *AuditService

	// курс: сколько звезд в одном рубле, фиксируется в каждой записи
	starsPerRub float64
	noteLimit   int

	// callback для уведомления получателя (telegram), не блокирует перевод
	notifyCallback func(ctx context.Context, toTgID int64, amount int64, fromUsername string)
	// callback для live-пуша баланса в websocket
	balanceCallback func(tgID int64)
}

func NewTransferService(db *pgxpool.Pool, audit *AuditService, starsPerRub float64, noteLimit int) *TransferService {
	return &TransferService{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		audit:       audit,
		starsPerRub: starsPerRub,
		noteLimit:   noteLimit,
	}
}

func (s *TransferService) SetNotifyCallback(cb func(ctx context.Context, toTgID int64, amount int64, fromUsername string)) {
	s.notifyCallback = cb
}

func (s *TransferService) SetBalanceCallback(cb func(tgID int64)) {
	s.balanceCallback = cb
}

// Transfer переводит amount звезд от verifiedTgID к req.ToTgID.
// проверки идут строго по порядку, первая упавшая решает
func (s *TransferService) Transfer(ctx context.Context, verifiedTgID int64, req *TransferRequest) (*domain.TransferResult, error) {
	// подставной отправитель в теле запроса - отдельная, более строгая ошибка
	if req.FromTgID != 0 && req.FromTgID != verifiedTgID {
		return nil, ErrFromIDMismatch
	}
	if req.AmountStars <= 0 {
		return nil, ErrBadAmount
	}
	if req.ToTgID <= 0 {
		return nil, ErrBadIDs
	}
	if req.ToTgID == verifiedTgID {
		return nil, ErrSelfTransferForbidden
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// блокируем строки обоих участников, по возрастанию tg_id чтобы не ловить deadlock.
	// блокировка отправителя сериализует конкурентные переводы: проверка баланса
	// и запись дебета становятся единым целым
	sender, receiver, err := s.lockParties(ctx, tx, verifiedTgID, req.ToTgID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrSenderNotFound
	}
	if receiver == nil {
		return nil, ErrReceiverNotFound
	}
	if sender.IsBanned {
		return nil, ErrSenderBanned
	}
	if receiver.IsBanned {
		return nil, ErrReceiverBanned
	}
	if sender.WalletLimited && sender.WalletLimit > 0 && req.AmountStars > sender.WalletLimit {
		return nil, ErrWalletLimited
	}

	// баланс всегда считается по ledger, кэш в users не участвует
	balance, err := s.ledgerRepo.BalanceWithTx(ctx, tx, verifiedTgID)
	if err != nil {
		return nil, fmt.Errorf("чтение баланса: %w", err)
	}
	if balance < req.AmountStars {
		return nil, &InsufficientFundsError{
			Balance:   balance,
			Shortfall: req.AmountStars - balance,
		}
	}

	transferID := uuid.New().String()
	note := TruncateNote(req.Note, s.noteLimit)

	debit, credit := BuildTransferEntries(verifiedTgID, req.ToTgID, req.AmountStars, s.starsPerRub, note, transferID)

	// обе записи в одной транзакции: либо пара целиком, либо ничего
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, debit); err != nil {
		return nil, ErrLedgerWriteFailed
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, credit); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	result := &domain.TransferResult{
		TransferID:  transferID,
		FromTgID:    verifiedTgID,
		ToTgID:      req.ToTgID,
		AmountStars: req.AmountStars,
		AmountRub:   credit.AmountRub,
	}

	s.afterTransfer(sender, result)
	return result, nil
}

// lockParties берет FOR UPDATE на обоих участников в порядке возрастания tg_id
func (s *TransferService) lockParties(ctx context.Context, tx pgx.Tx, fromTgID, toTgID int64) (sender, receiver *domain.User, err error) {
	firstID, secondID := fromTgID, toTgID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.userRepo.GetByTgIDForUpdate(ctx, tx, firstID)
	if err != nil {
		return nil, nil, fmt.Errorf("блокировка участника: %w", err)
	}
	second, err := s.userRepo.GetByTgIDForUpdate(ctx, tx, secondID)
	if err != nil {
		return nil, nil, fmt.Errorf("блокировка участника: %w", err)
	}

	if firstID == fromTgID {
		return first, second, nil
	}
	return second, first, nil
}

// побочные эффекты после коммита: аудит, уведомление, live-пуш.
// все лучшие усилия, ошибки сюда не пролезают
func (s *TransferService) afterTransfer(sender *domain.User, result *domain.TransferResult) {
	if s.audit != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.audit.Log(ctx, result.FromTgID, domain.AuditActionTransferSend, domain.AuditCategoryTransfer, map[string]interface{}{
			"transfer_id":  result.TransferID,
			"to_tg_id":     result.ToTgID,
			"amount_stars": result.AmountStars,
			"amount_rub":   result.AmountRub,
		})
	}

	if s.notifyCallback != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			s.notifyCallback(ctx, result.ToTgID, result.AmountStars, sender.Username)
		}()
	}

	if s.balanceCallback != nil {
		s.balanceCallback(result.FromTgID)
		s.balanceCallback(result.ToTgID)
	}
}

// BuildTransferEntries строит парные записи одного перевода.
// сумма пары всегда ноль, обе несут один transfer_id и один курс
func BuildTransferEntries(fromTgID, toTgID, amount int64, starsPerRub float64, note, transferID string) (debit, credit *domain.LedgerEntry) {
	rub := RubEquivalent(amount, starsPerRub)

	meta := map[string]interface{}{
		domain.MetaTransferID: transferID,
		"from_tg_id":          fromTgID,
		"to_tg_id":            toTgID,
	}
	if note != "" {
		meta["note"] = note
	}

	debit = &domain.LedgerEntry{
		TgID:            fromTgID,
		Type:            domain.LedgerP2PSend,
		AmountStars:     -amount,
		AmountRub:       -rub,
		RateStarsPerRub: starsPerRub,
		Status:          domain.LedgerStatusCompleted,
		Meta:            meta,
	}
	credit = &domain.LedgerEntry{
		TgID:            toTgID,
		Type:            domain.LedgerP2PRecv,
		AmountStars:     amount,
		AmountRub:       rub,
		RateStarsPerRub: starsPerRub,
		Status:          domain.LedgerStatusCompleted,
		Meta:            meta,
	}
	return debit, credit
}

// RubEquivalent переводит звезды в рубли по переданному курсу
func RubEquivalent(stars int64, starsPerRub float64) float64 {
	if starsPerRub <= 0 {
		logger.Warn("неположительный курс, рублевый эквивалент обнулен", "rate", starsPerRub)
		return 0
	}
	return float64(stars) / starsPerRub
}

// TruncateNote обрезает заметку до лимита по рунам, чтобы не порезать utf-8
func TruncateNote(note string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(note)
	if len(runes) <= limit {
		return note
	}
	return string(runes[:limit])
}
