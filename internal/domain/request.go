package domain

import "time"

// Статусы заявок: pending -> paid/rejected
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusPaid     RequestStatus = "paid"
	RequestStatusRejected RequestStatus = "rejected"
)

// Заявка на ручную оплату по QR.
// Payload хранится как есть, разбор EMV не наша забота
type PaymentRequest struct {
	ID          int64         `db:"id" json:"id"`
	TgID        int64         `db:"tg_id" json:"tg_id"`
	Payload     string        `db:"payload" json:"payload"`
	AmountStars int64         `db:"amount_stars" json:"amount_stars"`
	Comment     string        `db:"comment" json:"comment,omitempty"`
	Status      RequestStatus `db:"status" json:"status"`
	// кто обработал заявку и почему отклонил
	ResolvedBy   int64      `db:"resolved_by" json:"resolved_by,omitempty"`
	RejectReason string     `db:"reject_reason" json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
