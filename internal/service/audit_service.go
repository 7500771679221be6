package service

import (
	"context"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/logger"
	"stars_wallet/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// обрабатывает логирование аудита. запись лучшими усилиями:
// ошибка аудита никогда не валит основную операцию
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// создает новую запись в журнале аудита
func (s *AuditService) Log(ctx context.Context, tgID int64, action, category string, details map[string]interface{}) {
	log := &domain.AuditLog{
		TgID:     tgID,
		Action:   action,
		Category: category,
		Details:  details,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", action, "tg_id", tgID)
	}
}

// запись аудита с информацией о запросе (ip, user-agent)
func (s *AuditService) LogWithRequest(ctx context.Context, tgID int64, action, category, ip, userAgent string, details map[string]interface{}) {
	log := &domain.AuditLog{
		TgID:      tgID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", action, "tg_id", tgID)
	}
}

// логирует вход пользователя
func (s *AuditService) LogLogin(ctx context.Context, tgID int64, ip, userAgent string) {
	s.LogWithRequest(ctx, tgID, domain.AuditActionLogin, domain.AuditCategoryAuth, ip, userAgent, nil)
}

// логирует действие администратора над пользователем
func (s *AuditService) LogAdminAction(ctx context.Context, adminTgID int64, action string, targetTgID int64, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["admin_tg_id"] = adminTgID

	s.Log(ctx, targetTgID, action, domain.AuditCategoryAdmin, details)
}

// возвращает записи аудита для пользователя
func (s *AuditService) GetUserAuditLogs(ctx context.Context, tgID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByTgID(ctx, tgID, limit)
}

// возвращает последние записи аудита
func (s *AuditService) GetRecentLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetRecent(ctx, limit)
}

// возвращает записи аудита по категории
func (s *AuditService) GetLogsByCategory(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByCategory(ctx, category, limit)
}
