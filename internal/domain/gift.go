package domain

import "time"

// Подарок из каталога. Каталог статический, лежит в БД
type Gift struct {
	ID         int64  `db:"id" json:"id"`
	Slug       string `db:"slug" json:"slug"`
	Title      string `db:"title" json:"title"`
	ImageURL   string `db:"image_url" json:"image_url,omitempty"`
	PriceStars int64  `db:"price_stars" json:"price_stars"`
	// цена обратного выкупа, обычно ниже цены покупки
	SellStars int64     `db:"sell_stars" json:"sell_stars"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Подарок, купленный пользователем
type OwnedGift struct {
	ID     int64 `db:"id" json:"id"`
	TgID   int64 `db:"tg_id" json:"tg_id"`
	GiftID int64 `db:"gift_id" json:"gift_id"`
	// по какой цене купили и за сколько продали
	PaidStars int64      `db:"paid_stars" json:"paid_stars"`
	SoldStars int64      `db:"sold_stars" json:"sold_stars,omitempty"`
	IsSold    bool       `db:"is_sold" json:"is_sold"`
	BoughtAt  time.Time  `db:"bought_at" json:"bought_at"`
	SoldAt    *time.Time `db:"sold_at" json:"sold_at,omitempty"`
}
