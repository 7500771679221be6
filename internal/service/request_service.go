package service

import (
	"context"
	"strings"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmptyPayload = &WalletError{Code: "EMPTY_PAYLOAD"}

// RequestService принимает заявки на ручную оплату по QR.
// payload не разбирается, хранится как есть до решения админа
type RequestService struct {
	requestRepo *repository.RequestRepository
	userRepo    *repository.UserRepository
	audit       *AuditService

	// callback уведомления админов о новой заявке
	newRequestCallback func(req *domain.PaymentRequest)
}

func NewRequestService(db *pgxpool.Pool, audit *AuditService) *RequestService {
	return &RequestService{
		requestRepo: repository.NewRequestRepository(db),
		userRepo:    repository.NewUserRepository(db),
		audit:       audit,
	}
}

func (s *RequestService) SetNewRequestCallback(cb func(req *domain.PaymentRequest)) {
	s.newRequestCallback = cb
}

// Submit создает заявку на оплату
func (s *RequestService) Submit(ctx context.Context, tgID int64, payload string, amountStars int64, comment string) (*domain.PaymentRequest, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if amountStars <= 0 {
		return nil, ErrBadAmount
	}

	user, err := s.userRepo.GetByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSenderNotFound
	}
	if user.IsBanned {
		return nil, ErrSenderBanned
	}

	req := &domain.PaymentRequest{
		TgID:        tgID,
		Payload:     payload,
		AmountStars: amountStars,
		Comment:     TruncateNote(comment, 200),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatusPending

	if s.audit != nil {
		s.audit.Log(ctx, tgID, domain.AuditActionRequestSubmit, domain.AuditCategoryRequest, map[string]interface{}{
			"request_id":   req.ID,
			"amount_stars": amountStars,
		})
	}
	if s.newRequestCallback != nil {
		go s.newRequestCallback(req)
	}
	return req, nil
}

// заявки пользователя
func (s *RequestService) ListMine(ctx context.Context, tgID int64, limit int) ([]*domain.PaymentRequest, error) {
	return s.requestRepo.GetByTgID(ctx, tgID, limit)
}
