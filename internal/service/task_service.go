package service

import (
	"context"
	"fmt"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/logger"
	"stars_wallet/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTaskNotFound      = &WalletError{Code: "TASK_NOT_FOUND"}
	ErrTaskNotSubscribed = &WalletError{Code: "TASK_NOT_SUBSCRIBED"}
	ErrTaskAlreadyDone   = &WalletError{Code: "TASK_ALREADY_DONE"}
)

// TaskService проверяет подписку на канал через getChatMember
// и начисляет награду один раз на пользователя
type TaskService struct {
	db       *pgxpool.Pool
	bot      *tgbotapi.BotAPI
	taskRepo *repository.TaskRepository
	balance  *BalanceService
	audit    *AuditService
}

func NewTaskService(botToken string, db *pgxpool.Pool, balance *BalanceService, audit *AuditService) *TaskService {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		logger.Warn("tasks: бот недоступен, проверка подписок отключена", "error", err)
		bot = nil
	}
	return &TaskService{
		db:       db,
		bot:      bot,
		taskRepo: repository.NewTaskRepository(db),
		balance:  balance,
		audit:    audit,
	}
}

// TaskWithStatus - задание вместе с отметкой выполнения
type TaskWithStatus struct {
	Task      *domain.SubscriptionTask `json:"task"`
	Completed bool                     `json:"completed"`
}

// список заданий с прогрессом пользователя
func (s *TaskService) List(ctx context.Context, tgID int64) ([]TaskWithStatus, error) {
	tasks, err := s.taskRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	done, err := s.taskRepo.GetCompletedIDs(ctx, tgID)
	if err != nil {
		return nil, err
	}

	out := make([]TaskWithStatus, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskWithStatus{Task: t, Completed: done[t.ID]})
	}
	return out, nil
}

// Complete проверяет подписку и начисляет награду
func (s *TaskService) Complete(ctx context.Context, tgID, taskID int64) (*domain.LedgerEntry, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || !task.IsActive {
		return nil, ErrTaskNotFound
	}

	if !s.isSubscribed(task.ChannelID, tgID) {
		return nil, ErrTaskNotSubscribed
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	claimed, err := s.taskRepo.ClaimWithTx(ctx, tx, task.ID, tgID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrTaskAlreadyDone
	}

	entry, err := s.balance.CreditWithTx(ctx, tx, tgID, task.RewardStars, domain.LedgerTaskReward, map[string]interface{}{
		"task_id": task.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	if s.audit != nil {
		s.audit.Log(ctx, tgID, domain.AuditActionTaskComplete, domain.AuditCategoryTask, map[string]interface{}{
			"task_id":      task.ID,
			"reward_stars": task.RewardStars,
		})
	}
	return entry, nil
}

// проверка членства в канале. при недоступном боте отвечаем "не подписан",
// а не начисляем вслепую
func (s *TaskService) isSubscribed(channelID, tgID int64) bool {
	if s.bot == nil {
		return false
	}

	member, err := s.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: channelID,
			UserID: tgID,
		},
	})
	if err != nil {
		logger.Debug("getChatMember не удался", "channel_id", channelID, "tg_id", tgID, "error", err)
		return false
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}
