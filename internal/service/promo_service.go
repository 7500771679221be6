package service

import (
	"context"
	"fmt"
	"strings"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPromoNotFound        = &WalletError{Code: "PROMO_NOT_FOUND"}
	ErrPromoAlreadyRedeemed = &WalletError{Code: "PROMO_ALREADY_REDEEMED"}
)

// PromoService активирует промокоды: одна активация на пользователя,
// начисление и фиксация активации в одной транзакции
type PromoService struct {
	db        *pgxpool.Pool
	promoRepo *repository.PromoRepository
	balance   *BalanceService
	audit     *AuditService
}

func NewPromoService(db *pgxpool.Pool, balance *BalanceService, audit *AuditService) *PromoService {
	return &PromoService{
		db:        db,
		promoRepo: repository.NewPromoRepository(db),
		balance:   balance,
		audit:     audit,
	}
}

// Redeem активирует код и начисляет награду
func (s *PromoService) Redeem(ctx context.Context, tgID int64, code string) (*domain.LedgerEntry, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrPromoNotFound
	}

	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if promo == nil || !promo.IsActive {
		return nil, ErrPromoNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// условная вставка активации отсекает и повтор, и перебор лимита
	claimed, err := s.promoRepo.ClaimWithTx(ctx, tx, promo.ID, tgID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrPromoAlreadyRedeemed
	}

	entry, err := s.balance.CreditWithTx(ctx, tx, tgID, promo.RewardStars, domain.LedgerPromoBonus, map[string]interface{}{
		"promo_id":   promo.ID,
		"promo_code": promo.Code,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	if s.audit != nil {
		s.audit.Log(ctx, tgID, domain.AuditActionPromoRedeem, domain.AuditCategoryPromo, map[string]interface{}{
			"promo_code":   promo.Code,
			"reward_stars": promo.RewardStars,
		})
	}
	return entry, nil
}
