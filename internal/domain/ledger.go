package domain

import "time"

// Типы записей в ledger
type LedgerType string

const (
	LedgerP2PSend       LedgerType = "p2p_send"
	LedgerP2PRecv       LedgerType = "p2p_recv"
	LedgerStarsTopup    LedgerType = "stars_topup"
	LedgerTonTopup      LedgerType = "ton_topup"
	LedgerGiftPurchase  LedgerType = "gift_purchase"
	LedgerGiftSale      LedgerType = "gift_sale"
	LedgerRouletteSpin  LedgerType = "roulette_spin"
	LedgerRoulettePrize LedgerType = "roulette_prize"
	LedgerPromoBonus    LedgerType = "promo_bonus"
	LedgerTaskReward    LedgerType = "task_reward"
	LedgerRequestPayout LedgerType = "request_payout"
	LedgerAdminAdjust   LedgerType = "admin_adjust"
)

// Статус записи: в балансе участвуют только completed
type LedgerStatus string

const (
	LedgerStatusCompleted LedgerStatus = "completed"
	LedgerStatusPending   LedgerStatus = "pending"
	LedgerStatusCanceled  LedgerStatus = "canceled"
)

// Запись ledger - единственный источник истины для баланса.
// Записи никогда не изменяются и не удаляются, баланс всегда = SUM(amount_stars)
type LedgerEntry struct {
	ID          int64        `db:"id" json:"id"`
	TgID        int64        `db:"tg_id" json:"tg_id"`
	Type        LedgerType   `db:"type" json:"type"`
	AmountStars int64        `db:"amount_stars" json:"amount_stars"`
	// рублевый эквивалент, зафиксирован на момент записи
	AmountRub float64 `db:"amount_rub" json:"amount_rub"`
	// курс на момент записи, чтобы исторические записи оставались самоописываемыми
	RateStarsPerRub float64                `db:"rate_stars_per_rub" json:"rate_stars_per_rub"`
	Status          LedgerStatus           `db:"status" json:"status"`
	Meta            map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt       time.Time              `db:"created_at" json:"created_at"`
}

// ключ correlation id в meta: связывает парные записи одного перевода
const MetaTransferID = "transfer_id"

// Результат успешного p2p перевода
type TransferResult struct {
	TransferID  string  `json:"transfer_id"`
	FromTgID    int64   `json:"from_tg_id"`
	ToTgID      int64   `json:"to_tg_id"`
	AmountStars int64   `json:"amount_stars"`
	AmountRub   float64 `json:"amount_rub"`
}
