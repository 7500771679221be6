package repository

import (
	"context"
	"errors"

	"stars_wallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// задания на подписку
type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// возвращает все активные задания
func (r *TaskRepository) GetActive(ctx context.Context) ([]*domain.SubscriptionTask, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, channel_id, channel_link, reward_stars, is_active, sort_order
		FROM subscription_tasks
		WHERE is_active = true
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.SubscriptionTask
	for rows.Next() {
		var t domain.SubscriptionTask
		if err := rows.Scan(&t.ID, &t.Title, &t.ChannelID, &t.ChannelLink,
			&t.RewardStars, &t.IsActive, &t.SortOrder); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// задание по id
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.SubscriptionTask, error) {
	var t domain.SubscriptionTask
	err := r.db.QueryRow(ctx, `
		SELECT id, title, channel_id, channel_link, reward_stars, is_active, sort_order
		FROM subscription_tasks WHERE id = $1
	`, id).Scan(&t.ID, &t.Title, &t.ChannelID, &t.ChannelLink, &t.RewardStars, &t.IsActive, &t.SortOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// id заданий, выполненных пользователем
func (r *TaskRepository) GetCompletedIDs(ctx context.Context, tgID int64) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT task_id FROM task_completions WHERE tg_id = $1
	`, tgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		done[id] = true
	}
	return done, rows.Err()
}

// ClaimWithTx фиксирует выполнение задания, повторное выполнение не проходит
// благодаря уникальному индексу (task_id, tg_id)
func (r *TaskRepository) ClaimWithTx(ctx context.Context, tx pgx.Tx, taskID, tgID int64) (bool, error) {
	ct, err := tx.Exec(ctx, `
		INSERT INTO task_completions (task_id, tg_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, tg_id) DO NOTHING
	`, taskID, tgID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
