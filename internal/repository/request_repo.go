package repository

import (
	"context"
	"errors"

	"stars_wallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// заявки на ручную оплату: pending -> paid/rejected
type RequestRepository struct {
	db *pgxpool.Pool
}

func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, tg_id, payload, amount_stars, comment, status,
	resolved_by, reject_reason, created_at, resolved_at`

// создает новую заявку
func (r *RequestRepository) Create(ctx context.Context, req *domain.PaymentRequest) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO payment_requests (tg_id, payload, amount_stars, comment, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, created_at
	`, req.TgID, req.Payload, req.AmountStars, req.Comment).Scan(&req.ID, &req.CreatedAt)
}

// получает заявку по id
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*domain.PaymentRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM payment_requests WHERE id = $1`, id)
	return scanRequest(row)
}

// заявки пользователя
func (r *RequestRepository) GetByTgID(ctx context.Context, tgID int64, limit int) ([]*domain.PaymentRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM payment_requests
		WHERE tg_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ожидающие заявки для админки
func (r *RequestRepository) GetPending(ctx context.Context, limit int) ([]*domain.PaymentRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM payment_requests
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ResolveWithTx переводит заявку из pending в конечный статус внутри транзакции.
// условие status = 'pending' защищает от двойной обработки двумя админами
func (r *RequestRepository) ResolveWithTx(ctx context.Context, tx pgx.Tx, id int64, status domain.RequestStatus, resolvedBy int64, rejectReason string) (*domain.PaymentRequest, error) {
	row := tx.QueryRow(ctx, `
		UPDATE payment_requests
		SET status = $2, resolved_by = $3, reject_reason = $4, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns,
		id, status, resolvedBy, rejectReason)
	return scanRequest(row)
}

// количество ожидающих заявок
func (r *RequestRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_requests WHERE status = 'pending'`).Scan(&n)
	return n, err
}

func scanRequest(row pgx.Row) (*domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	var comment, rejectReason *string
	var resolvedBy *int64

	err := row.Scan(&req.ID, &req.TgID, &req.Payload, &req.AmountStars, &comment,
		&req.Status, &resolvedBy, &rejectReason, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if comment != nil {
		req.Comment = *comment
	}
	if rejectReason != nil {
		req.RejectReason = *rejectReason
	}
	if resolvedBy != nil {
		req.ResolvedBy = *resolvedBy
	}

	return &req, nil
}

func scanRequests(rows pgx.Rows) ([]*domain.PaymentRequest, error) {
	var out []*domain.PaymentRequest
	for rows.Next() {
		var req domain.PaymentRequest
		var comment, rejectReason *string
		var resolvedBy *int64

		if err := rows.Scan(&req.ID, &req.TgID, &req.Payload, &req.AmountStars, &comment,
			&req.Status, &resolvedBy, &rejectReason, &req.CreatedAt, &req.ResolvedAt); err != nil {
			return nil, err
		}

		if comment != nil {
			req.Comment = *comment
		}
		if rejectReason != nil {
			req.RejectReason = *rejectReason
		}
		if resolvedBy != nil {
			req.ResolvedBy = *resolvedBy
		}

		out = append(out, &req)
	}
	return out, rows.Err()
}
