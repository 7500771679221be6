package service

import (
	"context"
	"fmt"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRequestNotFound = &WalletError{Code: "REQUEST_NOT_FOUND"}
	ErrRequestResolved = &WalletError{Code: "REQUEST_ALREADY_RESOLVED"}
)

// Сводка для админки
type AdminStats struct {
	Users           int64 `json:"users"`
	PendingRequests int64 `json:"pending_requests"`
}

// AdminService - действия администраторов: заявки, баны, корректировки
type AdminService struct {
	db          *pgxpool.Pool
	userRepo    *repository.UserRepository
	requestRepo *repository.RequestRepository
	balance     *BalanceService
	audit       *AuditService

	// callback уведомления пользователя об итоге заявки
	resolveCallback func(tgID int64, requestID int64, paid bool, reason string)
}

func NewAdminService(db *pgxpool.Pool, balance *BalanceService, audit *AuditService) *AdminService {
	return &AdminService{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		requestRepo: repository.NewRequestRepository(db),
		balance:     balance,
		audit:       audit,
	}
}

func (s *AdminService) SetResolveCallback(cb func(tgID int64, requestID int64, paid bool, reason string)) {
	s.resolveCallback = cb
}

// список ожидающих заявок
func (s *AdminService) PendingRequests(ctx context.Context, limit int) ([]*domain.PaymentRequest, error) {
	return s.requestRepo.GetPending(ctx, limit)
}

// ApproveRequest помечает заявку оплаченной и начисляет звезды.
// смена статуса и запись ledger идут в одной транзакции: заявка не может
// стать paid без начисления и наоборот
func (s *AdminService) ApproveRequest(ctx context.Context, adminTgID, requestID int64) (*domain.PaymentRequest, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.requestRepo.ResolveWithTx(ctx, tx, requestID, domain.RequestStatusPaid, adminTgID, "")
	if err != nil {
		return nil, err
	}
	if req == nil {
		// либо нет заявки, либо ее уже обработал другой админ
		if existing, _ := s.requestRepo.GetByID(ctx, requestID); existing != nil {
			return nil, ErrRequestResolved
		}
		return nil, ErrRequestNotFound
	}

	if _, err := s.balance.CreditWithTx(ctx, tx, req.TgID, req.AmountStars, domain.LedgerRequestPayout, map[string]interface{}{
		"request_id": req.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionRequestPaid, req.TgID, map[string]interface{}{
			"request_id":   req.ID,
			"amount_stars": req.AmountStars,
		})
	}
	if s.resolveCallback != nil {
		s.resolveCallback(req.TgID, req.ID, true, "")
	}
	return req, nil
}

// RejectRequest отклоняет заявку с причиной, баланс не трогается
func (s *AdminService) RejectRequest(ctx context.Context, adminTgID, requestID int64, reason string) (*domain.PaymentRequest, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.requestRepo.ResolveWithTx(ctx, tx, requestID, domain.RequestStatusRejected, adminTgID, reason)
	if err != nil {
		return nil, err
	}
	if req == nil {
		if existing, _ := s.requestRepo.GetByID(ctx, requestID); existing != nil {
			return nil, ErrRequestResolved
		}
		return nil, ErrRequestNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("коммит: %w", err)
	}

	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionRequestReject, req.TgID, map[string]interface{}{
			"request_id": req.ID,
			"reason":     reason,
		})
	}
	if s.resolveCallback != nil {
		s.resolveCallback(req.TgID, req.ID, false, reason)
	}
	return req, nil
}

// банит пользователя
func (s *AdminService) BanUser(ctx context.Context, adminTgID, tgID int64, reason string) error {
	if err := s.userRepo.SetBan(ctx, tgID, true, reason); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionBan, tgID, map[string]interface{}{"reason": reason})
	}
	return nil
}

// снимает бан
func (s *AdminService) UnbanUser(ctx context.Context, adminTgID, tgID int64) error {
	if err := s.userRepo.SetBan(ctx, tgID, false, ""); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionUnban, tgID, nil)
	}
	return nil
}

// помечает пользователя верифицированным
func (s *AdminService) VerifyUser(ctx context.Context, adminTgID, tgID int64, verified bool) error {
	if err := s.userRepo.SetVerified(ctx, tgID, verified); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionVerify, tgID, map[string]interface{}{"verified": verified})
	}
	return nil
}

// назначает роль
func (s *AdminService) SetRole(ctx context.Context, adminTgID, tgID int64, role domain.Role) error {
	if err := s.userRepo.SetRole(ctx, tgID, role); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionSetRole, tgID, map[string]interface{}{"role": role})
	}
	return nil
}

// telegram id всех пользователей для рассылки
func (s *AdminService) AllUserTgIDs(ctx context.Context) ([]int64, error) {
	return s.userRepo.AllTgIDs(ctx)
}

// ограничение кошелька: потолок суммы одного перевода
func (s *AdminService) SetWalletLimit(ctx context.Context, adminTgID, tgID int64, limited bool, limit int64) error {
	if err := s.userRepo.SetWalletLimit(ctx, tgID, limited, limit); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionWalletLimit, tgID, map[string]interface{}{
			"limited": limited,
			"limit":   limit,
		})
	}
	return nil
}

// AdjustBalance - ручная корректировка: как и все остальное, только запись ledger
func (s *AdminService) AdjustBalance(ctx context.Context, adminTgID, tgID, deltaStars int64, reason string) error {
	if deltaStars == 0 {
		return ErrBadAmount
	}

	meta := map[string]interface{}{
		"admin_tg_id": adminTgID,
		"reason":      reason,
	}

	var err error
	if deltaStars > 0 {
		_, err = s.balance.Credit(ctx, tgID, deltaStars, domain.LedgerAdminAdjust, meta)
	} else {
		_, err = s.balance.Debit(ctx, tgID, -deltaStars, domain.LedgerAdminAdjust, meta)
	}
	if err != nil {
		return err
	}

	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminTgID, domain.AuditActionAdjust, tgID, map[string]interface{}{
			"delta_stars": deltaStars,
			"reason":      reason,
		})
	}
	return nil
}

// сводная статистика
func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.requestRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{Users: users, PendingRequests: pending}, nil
}

// пользователь по tg id, для админ бота
func (s *AdminService) GetUser(ctx context.Context, tgID int64) (*domain.User, error) {
	return s.userRepo.GetByTgID(ctx, tgID)
}

// текущий баланс из ledger, для админ бота
func (s *AdminService) GetBalance(ctx context.Context, tgID int64) (int64, error) {
	return s.balance.Balance(ctx, tgID)
}
