package service

import (
	"context"
	"fmt"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrGiftNotFound    = &WalletError{Code: "GIFT_NOT_FOUND"}
	ErrGiftAlreadySold = &WalletError{Code: "GIFT_ALREADY_SOLD"}
	ErrGiftNotOwned    = &WalletError{Code: "GIFT_NOT_OWNED"}
)

// GiftService - покупка и продажа подарков из статического каталога.
// покупка = списание + строка владения, продажа = начисление по цене выкупа
type GiftService struct {
	db       *pgxpool.Pool
	giftRepo *repository.GiftRepository
	balance  *BalanceService
	audit    *AuditService
}

func NewGiftService(db *pgxpool.Pool, balance *BalanceService, audit *AuditService) *GiftService {
	return &GiftService{
		db:       db,
		giftRepo: repository.NewGiftRepository(db),
		balance:  balance,
		audit:    audit,
	}
}

// каталог активных подарков
func (s *GiftService) Catalog(ctx context.Context) ([]*domain.Gift, error) {
	return s.giftRepo.GetCatalog(ctx)
}

// подарки пользователя
func (s *GiftService) Owned(ctx context.Context, tgID int64) ([]*domain.OwnedGift, error) {
	return s.giftRepo.GetOwned(ctx, tgID)
}

// Buy покупает подарок: списание и строка владения в одной транзакции
func (s *GiftService) Buy(ctx context.Context, tgID, giftID int64) (*domain.OwnedGift, error) {
	gift, err := s.giftRepo.GetByID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift == nil || !gift.IsActive {
		return nil, ErrGiftNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// списание с проверкой достаточности под блокировкой
	if _, err := s.balance.DebitWithTx(ctx, tx, tgID, gift.PriceStars, domain.LedgerGiftPurchase, map[string]interface{}{
		"gift_id":   gift.ID,
		"gift_slug": gift.Slug,
	}); err != nil {
		return nil, err
	}

	owned := &domain.OwnedGift{
		TgID:      tgID,
		GiftID:    gift.ID,
		PaidStars: gift.PriceStars,
	}
	if err := s.giftRepo.CreateOwnedWithTx(ctx, tx, owned); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	if s.audit != nil {
		s.audit.Log(ctx, tgID, domain.AuditActionGiftBuy, domain.AuditCategoryGift, map[string]interface{}{
			"gift_id":     gift.ID,
			"price_stars": gift.PriceStars,
		})
	}
	return owned, nil
}

// Sell продает подарок обратно платформе по цене выкупа
func (s *GiftService) Sell(ctx context.Context, tgID, ownedID int64) (*domain.LedgerEntry, error) {
	owned, err := s.giftRepo.GetOwnedByID(ctx, ownedID, tgID)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		return nil, ErrGiftNotOwned
	}
	if owned.IsSold {
		return nil, ErrGiftAlreadySold
	}

	gift, err := s.giftRepo.GetByID(ctx, owned.GiftID)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// условный UPDATE защищает от двойной продажи при гонке
	sold, err := s.giftRepo.MarkSoldWithTx(ctx, tx, ownedID, tgID, gift.SellStars)
	if err != nil {
		return nil, err
	}
	if sold == nil {
		return nil, ErrGiftAlreadySold
	}

	entry, err := s.balance.CreditWithTx(ctx, tx, tgID, gift.SellStars, domain.LedgerGiftSale, map[string]interface{}{
		"gift_id":  gift.ID,
		"owned_id": ownedID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	if s.audit != nil {
		s.audit.Log(ctx, tgID, domain.AuditActionGiftSell, domain.AuditCategoryGift, map[string]interface{}{
			"gift_id":    gift.ID,
			"sell_stars": gift.SellStars,
		})
	}
	return entry, nil
}
