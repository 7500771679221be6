package domain

import "time"

// Промокод на начисление звезд
type PromoCode struct {
	ID          int64  `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	RewardStars int64  `db:"reward_stars" json:"reward_stars"`
	// сколько раз код можно активировать всего, 0 = без лимита
	MaxUses   int        `db:"max_uses" json:"max_uses"`
	UsedCount int        `db:"used_count" json:"used_count"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Задание на подписку: проверяется через getChatMember
type SubscriptionTask struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	ChannelID   int64  `db:"channel_id" json:"channel_id"`
	ChannelLink string `db:"channel_link" json:"channel_link"`
	RewardStars int64  `db:"reward_stars" json:"reward_stars"`
	IsActive    bool   `db:"is_active" json:"is_active"`
	SortOrder   int    `db:"sort_order" json:"sort_order"`
}
