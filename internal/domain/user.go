package domain

import "time"

// Роли пользователей
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID         int64  `db:"id" json:"id"`
	TgID       int64  `db:"tg_id" json:"tg_id"`
	Username   string `db:"username" json:"username"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name,omitempty"`
	Role       Role   `db:"role" json:"role"`
	IsBanned   bool   `db:"is_banned" json:"is_banned"`
	BanReason  string `db:"ban_reason" json:"ban_reason,omitempty"`
	IsVerified bool   `db:"is_verified" json:"is_verified"`
	// ограничение кошелька: лимит на сумму перевода, 0 = без лимита
	WalletLimited bool  `db:"wallet_limited" json:"wallet_limited"`
	WalletLimit   int64 `db:"wallet_limit" json:"wallet_limit,omitempty"`
	// кэш баланса, пересобирается из ledger, НЕ источник истины
	StarsCached int64     `db:"stars_cached" json:"stars_cached"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// профиль из поля user в init_data телеграма
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsPremium bool   `json:"is_premium"`
}
