package repository

import (
	"context"
	"encoding/json"

	"stars_wallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository пишет и читает append-only журнал операций.
// UPDATE и DELETE по таблице ledger не существуют в принципе
type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// текущий баланс всегда считается агрегатом по ledger
func (r *LedgerRepository) Balance(ctx context.Context, tgID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_stars), 0) FROM ledger
		WHERE tg_id = $1 AND status = 'completed'
	`, tgID).Scan(&balance)
	return balance, err
}

// баланс внутри транзакции: читается после блокировки строки пользователя
func (r *LedgerRepository) BalanceWithTx(ctx context.Context, tx pgx.Tx, tgID int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_stars), 0) FROM ledger
		WHERE tg_id = $1 AND status = 'completed'
	`, tgID).Scan(&balance)
	return balance, err
}

// добавляет запись вне транзакции (одиночные начисления)
func (r *LedgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	meta := marshalMeta(e.Meta)
	return r.db.QueryRow(ctx, `
		INSERT INTO ledger (tg_id, type, amount_stars, amount_rub, rate_stars_per_rub, status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.TgID, e.Type, e.AmountStars, e.AmountRub, e.RateStarsPerRub, e.Status, meta).
		Scan(&e.ID, &e.CreatedAt)
}

// добавляет запись внутри транзакции
func (r *LedgerRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	meta := marshalMeta(e.Meta)
	return tx.QueryRow(ctx, `
		INSERT INTO ledger (tg_id, type, amount_stars, amount_rub, rate_stars_per_rub, status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.TgID, e.Type, e.AmountStars, e.AmountRub, e.RateStarsPerRub, e.Status, meta).
		Scan(&e.ID, &e.CreatedAt)
}

// CreateIfChargeAbsent добавляет начисление, если записи с таким
// meta->>'charge_id' еще нет. дедупликацию держит частичный уникальный
// индекс ledger_charge_id_uniq: при конфликте строка не вставляется
// и метод возвращает false. гонка двух одинаковых webhook разрешается
// внутри базы, а не проверкой перед записью
func (r *LedgerRepository) CreateIfChargeAbsent(ctx context.Context, e *domain.LedgerEntry) (bool, error) {
	meta := marshalMeta(e.Meta)
	ct, err := r.db.Exec(ctx, `
		INSERT INTO ledger (tg_id, type, amount_stars, amount_rub, rate_stars_per_rub, status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ((meta->>'charge_id')) WHERE meta ? 'charge_id' DO NOTHING
	`, e.TgID, e.Type, e.AmountStars, e.AmountRub, e.RateStarsPerRub, e.Status, meta)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// история операций пользователя, свежие сверху
func (r *LedgerRepository) GetByTgID(ctx context.Context, tgID int64, limit int) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tg_id, type, amount_stars, amount_rub, rate_stars_per_rub, status, meta, created_at
		FROM ledger
		WHERE tg_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, tgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// записи одного перевода по correlation id
func (r *LedgerRepository) GetByTransferID(ctx context.Context, transferID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tg_id, type, amount_stars, amount_rub, rate_stars_per_rub, status, meta, created_at
		FROM ledger
		WHERE meta->>'transfer_id' = $1
		ORDER BY id
	`, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// проверяет, было ли уже начисление с данным внешним ключом идемпотентности
// (telegram_payment_charge_id, хэш TON транзакции и т.п.)
func (r *LedgerRepository) ExistsByMetaKey(ctx context.Context, key, value string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM ledger WHERE meta->>$1 = $2)
	`, key, value).Scan(&exists)
	return exists, err
}

func marshalMeta(meta map[string]interface{}) []byte {
	b, err := json.Marshal(meta)
	if err != nil || meta == nil {
		return []byte("{}")
	}
	return b
}

func scanLedgerEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.TgID, &e.Type, &e.AmountStars, &e.AmountRub,
			&e.RateStarsPerRub, &e.Status, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &e.Meta); err != nil {
			e.Meta = make(map[string]interface{})
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
