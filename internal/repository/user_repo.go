package repository

import (
	"context"
	"errors"

	"stars_wallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tg_id, username, first_name, last_name, role, is_banned, ban_reason,
	is_verified, wallet_limited, wallet_limit, stars_cached, created_at`

// получает пользователя по telegram id
func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID)
	return scanUser(row)
}

// получает пользователя по telegram id внутри транзакции с блокировкой строки.
// блокировка сериализует переводы одного отправителя
func (r *UserRepository) GetByTgIDForUpdate(ctx context.Context, tx pgx.Tx, tgID int64) (*domain.User, error) {
	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tg_id = $1 FOR UPDATE`, tgID)
	return scanUser(row)
}

// Upsert создает пользователя при первом входе или обновляет профиль.
// повторный вызов с тем же tg_id оставляет ровно одну строку
func (r *UserRepository) Upsert(ctx context.Context, tgUser *domain.TelegramUser) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (tg_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tg_id) DO UPDATE
		SET username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
		RETURNING `+userColumns,
		tgUser.ID, tgUser.Username, tgUser.FirstName, tgUser.LastName)
	return scanUser(row)
}

// устанавливает или снимает бан
func (r *UserRepository) SetBan(ctx context.Context, tgID int64, banned bool, reason string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET is_banned = $2, ban_reason = $3 WHERE tg_id = $1`,
		tgID, banned, reason)
	return err
}

// помечает пользователя верифицированным
func (r *UserRepository) SetVerified(ctx context.Context, tgID int64, verified bool) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET is_verified = $2 WHERE tg_id = $1`, tgID, verified)
	return err
}

// назначает роль
func (r *UserRepository) SetRole(ctx context.Context, tgID int64, role domain.Role) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET role = $2 WHERE tg_id = $1`, tgID, role)
	return err
}

// устанавливает лимит кошелька
func (r *UserRepository) SetWalletLimit(ctx context.Context, tgID int64, limited bool, limit int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET wallet_limited = $2, wallet_limit = $3 WHERE tg_id = $1`,
		tgID, limited, limit)
	return err
}

// обновляет кэш баланса из ledger. кэш только для чтения списков,
// путь перевода его никогда не читает
func (r *UserRepository) RefreshStarsCache(ctx context.Context, tgID int64) (int64, error) {
	var cached int64
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET stars_cached = COALESCE((
			SELECT SUM(amount_stars) FROM ledger
			WHERE tg_id = $1 AND status = 'completed'
		), 0)
		WHERE tg_id = $1
		RETURNING stars_cached
	`, tgID).Scan(&cached)
	return cached, err
}

// все telegram id не забаненных пользователей, для рассылки
func (r *UserRepository) AllTgIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT tg_id FROM users WHERE is_banned = false ORDER BY tg_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// количество пользователей, для статистики в админке
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var lastName, banReason *string

	err := row.Scan(
		&u.ID, &u.TgID, &u.Username, &u.FirstName, &lastName, &u.Role,
		&u.IsBanned, &banReason, &u.IsVerified,
		&u.WalletLimited, &u.WalletLimit, &u.StarsCached, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if lastName != nil {
		u.LastName = *lastName
	}
	if banReason != nil {
		u.BanReason = *banReason
	}

	return &u, nil
}
