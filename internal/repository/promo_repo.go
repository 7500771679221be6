package repository

import (
	"context"
	"errors"

	"stars_wallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PromoRepository struct {
	db *pgxpool.Pool
}

func NewPromoRepository(db *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{db: db}
}

// ищет активный код (регистр не важен)
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := r.db.QueryRow(ctx, `
		SELECT id, code, reward_stars, max_uses, used_count, is_active, expires_at, created_at
		FROM promo_codes
		WHERE LOWER(code) = LOWER($1)
	`, code).Scan(&p.ID, &p.Code, &p.RewardStars, &p.MaxUses, &p.UsedCount, &p.IsActive, &p.ExpiresAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ClaimWithTx атомарно занимает активацию кода для пользователя.
// уникальный индекс (promo_id, tg_id) отсекает повторную активацию,
// условие на used_count отсекает перебор лимита
func (r *PromoRepository) ClaimWithTx(ctx context.Context, tx pgx.Tx, promoID, tgID int64) (bool, error) {
	ct, err := tx.Exec(ctx, `
		INSERT INTO promo_redemptions (promo_id, tg_id)
		SELECT $1, $2
		FROM promo_codes
		WHERE id = $1 AND is_active = true
			AND (max_uses = 0 OR used_count < max_uses)
			AND (expires_at IS NULL OR expires_at > NOW())
		ON CONFLICT (promo_id, tg_id) DO NOTHING
	`, promoID, tgID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `UPDATE promo_codes SET used_count = used_count + 1 WHERE id = $1`, promoID)
	return err == nil, err
}

// проверяет, активировал ли юзер код ранее
func (r *PromoRepository) IsRedeemed(ctx context.Context, promoID, tgID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM promo_redemptions WHERE promo_id = $1 AND tg_id = $2)
	`, promoID, tgID).Scan(&exists)
	return exists, err
}
