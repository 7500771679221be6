package domain

import "time"

// Логирование важных действий
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	TgID      int64                  `db:"tg_id" json:"tg_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Категории совершенных действий
const (
	AuditCategoryAuth     = "auth"
	AuditCategoryTransfer = "transfer"
	AuditCategoryTopup    = "topup"
	AuditCategoryRequest  = "request"
	AuditCategoryPromo    = "promo"
	AuditCategoryTask     = "task"
	AuditCategoryRoulette = "roulette"
	AuditCategoryGift     = "gift"
	AuditCategoryAdmin    = "admin"
)

const (
	// Авторизация
	AuditActionLogin = "login"

	// Переводы и начисления
	AuditActionTransferSend = "transfer_send"
	AuditActionStarsTopup   = "stars_topup"
	AuditActionTonTopup     = "ton_topup"

	// Заявки
	AuditActionRequestSubmit = "request_submit"
	AuditActionRequestPaid   = "request_paid"
	AuditActionRequestReject = "request_reject"

	// Прочее
	AuditActionPromoRedeem   = "promo_redeem"
	AuditActionTaskComplete  = "task_complete"
	AuditActionRouletteSpin  = "roulette_spin"
	AuditActionGiftBuy       = "gift_buy"
	AuditActionGiftSell      = "gift_sell"

	// Админ
	AuditActionBan          = "ban"
	AuditActionUnban        = "unban"
	AuditActionVerify       = "verify"
	AuditActionSetRole      = "set_role"
	AuditActionWalletLimit  = "wallet_limit"
	AuditActionAdjust       = "adjust"
	AuditActionCacheRebuild = "cache_rebuild"
)
