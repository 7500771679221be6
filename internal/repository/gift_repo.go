package repository

import (
	"context"
	"errors"

	"stars_wallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GiftRepository struct {
	db *pgxpool.Pool
}

func NewGiftRepository(db *pgxpool.Pool) *GiftRepository {
	return &GiftRepository{db: db}
}

// активный каталог подарков
func (r *GiftRepository) GetCatalog(ctx context.Context) ([]*domain.Gift, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, slug, title, image_url, price_stars, sell_stars, is_active, created_at
		FROM gifts
		WHERE is_active = true
		ORDER BY price_stars, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gifts []*domain.Gift
	for rows.Next() {
		var g domain.Gift
		var imageURL *string
		if err := rows.Scan(&g.ID, &g.Slug, &g.Title, &imageURL, &g.PriceStars,
			&g.SellStars, &g.IsActive, &g.CreatedAt); err != nil {
			return nil, err
		}
		if imageURL != nil {
			g.ImageURL = *imageURL
		}
		gifts = append(gifts, &g)
	}
	return gifts, rows.Err()
}

// подарок по id
func (r *GiftRepository) GetByID(ctx context.Context, id int64) (*domain.Gift, error) {
	var g domain.Gift
	var imageURL *string
	err := r.db.QueryRow(ctx, `
		SELECT id, slug, title, image_url, price_stars, sell_stars, is_active, created_at
		FROM gifts WHERE id = $1
	`, id).Scan(&g.ID, &g.Slug, &g.Title, &imageURL, &g.PriceStars, &g.SellStars, &g.IsActive, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if imageURL != nil {
		g.ImageURL = *imageURL
	}
	return &g, nil
}

// записывает покупку внутри транзакции
func (r *GiftRepository) CreateOwnedWithTx(ctx context.Context, tx pgx.Tx, og *domain.OwnedGift) error {
	return tx.QueryRow(ctx, `
		INSERT INTO owned_gifts (tg_id, gift_id, paid_stars)
		VALUES ($1, $2, $3)
		RETURNING id, bought_at
	`, og.TgID, og.GiftID, og.PaidStars).Scan(&og.ID, &og.BoughtAt)
}

// помечает подарок проданным, только если он еще не продан и принадлежит юзеру
func (r *GiftRepository) MarkSoldWithTx(ctx context.Context, tx pgx.Tx, ownedID, tgID, soldStars int64) (*domain.OwnedGift, error) {
	var og domain.OwnedGift
	err := tx.QueryRow(ctx, `
		UPDATE owned_gifts
		SET is_sold = true, sold_stars = $3, sold_at = NOW()
		WHERE id = $1 AND tg_id = $2 AND is_sold = false
		RETURNING id, tg_id, gift_id, paid_stars, sold_stars, is_sold, bought_at, sold_at
	`, ownedID, tgID, soldStars).
		Scan(&og.ID, &og.TgID, &og.GiftID, &og.PaidStars, &og.SoldStars, &og.IsSold, &og.BoughtAt, &og.SoldAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &og, nil
}

// подарки пользователя (непроданные)
func (r *GiftRepository) GetOwned(ctx context.Context, tgID int64) ([]*domain.OwnedGift, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tg_id, gift_id, paid_stars, COALESCE(sold_stars, 0), is_sold, bought_at, sold_at
		FROM owned_gifts
		WHERE tg_id = $1 AND is_sold = false
		ORDER BY bought_at DESC
	`, tgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.OwnedGift
	for rows.Next() {
		var og domain.OwnedGift
		if err := rows.Scan(&og.ID, &og.TgID, &og.GiftID, &og.PaidStars, &og.SoldStars,
			&og.IsSold, &og.BoughtAt, &og.SoldAt); err != nil {
			return nil, err
		}
		out = append(out, &og)
	}
	return out, rows.Err()
}

// принадлежащий юзеру подарок по id
func (r *GiftRepository) GetOwnedByID(ctx context.Context, ownedID, tgID int64) (*domain.OwnedGift, error) {
	var og domain.OwnedGift
	err := r.db.QueryRow(ctx, `
		SELECT id, tg_id, gift_id, paid_stars, COALESCE(sold_stars, 0), is_sold, bought_at, sold_at
		FROM owned_gifts
		WHERE id = $1 AND tg_id = $2
	`, ownedID, tgID).
		Scan(&og.ID, &og.TgID, &og.GiftID, &og.PaidStars, &og.SoldStars, &og.IsSold, &og.BoughtAt, &og.SoldAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &og, nil
}
