package service

import (
	"context"
	"fmt"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BalanceService - общий движок "прочитай баланс, проверь, допиши запись ledger".
// все фичи (промо, задания, рулетка, подарки, заявки) ходят через него
type BalanceService struct {
	db         *pgxpool.Pool
	userRepo   *repository.UserRepository
	ledgerRepo *repository.LedgerRepository

	starsPerRub float64
}

func NewBalanceService(db *pgxpool.Pool, starsPerRub float64) *BalanceService {
	return &BalanceService{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		starsPerRub: starsPerRub,
	}
}

// текущий баланс пользователя, всегда агрегат по ledger
func (s *BalanceService) Balance(ctx context.Context, tgID int64) (int64, error) {
	user, err := s.userRepo.GetByTgID(ctx, tgID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrSenderNotFound
	}
	return s.ledgerRepo.Balance(ctx, tgID)
}

// Credit начисляет звезды одной записью ledger. начисление не требует
// блокировки: баланс от него только растет
func (s *BalanceService) Credit(ctx context.Context, tgID int64, amount int64, entryType domain.LedgerType, meta map[string]interface{}) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}

	entry := s.buildEntry(tgID, amount, entryType, meta)
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, ErrLedgerWriteFailed
	}
	return entry, nil
}

// CreditOnce начисляет не более одного раза на charge id из meta.
// возвращает credited=false, если запись с таким charge_id уже есть
func (s *BalanceService) CreditOnce(ctx context.Context, tgID int64, amount int64, entryType domain.LedgerType, meta map[string]interface{}) (*domain.LedgerEntry, bool, error) {
	if amount <= 0 {
		return nil, false, ErrBadAmount
	}

	entry := s.buildEntry(tgID, amount, entryType, meta)
	credited, err := s.ledgerRepo.CreateIfChargeAbsent(ctx, entry)
	if err != nil {
		return nil, false, ErrLedgerWriteFailed
	}
	if !credited {
		return nil, false, nil
	}
	return entry, true, nil
}

// CreditWithTx начисляет внутри чужой транзакции
func (s *BalanceService) CreditWithTx(ctx context.Context, tx pgx.Tx, tgID int64, amount int64, entryType domain.LedgerType, meta map[string]interface{}) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}

	entry := s.buildEntry(tgID, amount, entryType, meta)
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, ErrLedgerWriteFailed
	}
	return entry, nil
}

// Debit списывает звезды с проверкой достаточности. блокировка строки
// пользователя сериализует конкурентные списания
func (s *BalanceService) Debit(ctx context.Context, tgID int64, amount int64, entryType domain.LedgerType, meta map[string]interface{}) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entry, err := s.DebitWithTx(ctx, tx, tgID, amount, entryType, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}
	return entry, nil
}

// DebitWithTx списывает внутри чужой транзакции. вызывающий обязан
// начать транзакцию до каких-либо своих записей
func (s *BalanceService) DebitWithTx(ctx context.Context, tx pgx.Tx, tgID int64, amount int64, entryType domain.LedgerType, meta map[string]interface{}) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}

	user, err := s.userRepo.GetByTgIDForUpdate(ctx, tx, tgID)
	if err != nil {
		return nil, fmt.Errorf("блокировка пользователя: %w", err)
	}
	if user == nil {
		return nil, ErrSenderNotFound
	}
	if user.IsBanned {
		return nil, ErrSenderBanned
	}

	balance, err := s.ledgerRepo.BalanceWithTx(ctx, tx, tgID)
	if err != nil {
		return nil, fmt.Errorf("чтение баланса: %w", err)
	}
	if balance < amount {
		return nil, &InsufficientFundsError{Balance: balance, Shortfall: amount - balance}
	}

	entry := s.buildEntry(tgID, -amount, entryType, meta)
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, ErrLedgerWriteFailed
	}
	return entry, nil
}

// история операций пользователя
func (s *BalanceService) History(ctx context.Context, tgID int64, limit int) ([]*domain.LedgerEntry, error) {
	return s.ledgerRepo.GetByTgID(ctx, tgID, limit)
}

// RebuildCache пересобирает кэш users.stars_cached из ledger.
// кэш - материализация для списков, он никогда не пишется в пути перевода
func (s *BalanceService) RebuildCache(ctx context.Context, tgID int64) (int64, error) {
	return s.userRepo.RefreshStarsCache(ctx, tgID)
}

func (s *BalanceService) buildEntry(tgID, amount int64, entryType domain.LedgerType, meta map[string]interface{}) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		TgID:            tgID,
		Type:            entryType,
		AmountStars:     amount,
		AmountRub:       RubEquivalent(amount, s.starsPerRub),
		RateStarsPerRub: s.starsPerRub,
		Status:          domain.LedgerStatusCompleted,
		Meta:            meta,
	}
}
