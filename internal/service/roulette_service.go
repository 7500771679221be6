package service

import (
	"context"
	"fmt"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/game"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// цена одного вращения в звездах
const rouletteSpinCost = 10

// Результат вращения для ответа API
type SpinResult struct {
	SpinID     string  `json:"spin_id"`
	SectorID   int     `json:"sector_id"`
	Label      string  `json:"label"`
	PrizeStars int64   `json:"prize_stars"`
	SpinAngle  float64 `json:"spin_angle"`
	NewBalance int64   `json:"new_balance"`
}

// RouletteService крутит рулетку: списание за вращение и начисление приза
// идут парой записей ledger с общим spin id в одной транзакции
type RouletteService struct {
	db      *pgxpool.Pool
	balance *BalanceService
	audit   *AuditService
}

func NewRouletteService(db *pgxpool.Pool, balance *BalanceService, audit *AuditService) *RouletteService {
	return &RouletteService{db: db, balance: balance, audit: audit}
}

// конфигурация рулетки для фронтенда
func (s *RouletteService) Sectors() (int64, []game.RouletteSector) {
	return rouletteSpinCost, game.DefaultSectors()
}

// Spin выполняет одно вращение
func (s *RouletteService) Spin(ctx context.Context, tgID int64) (*SpinResult, error) {
	roulette := game.NewRoulette(rouletteSpinCost)
	sector := roulette.Spin()

	spinID := uuid.New().String()
	details := roulette.ToDetails()
	details["spin_id"] = spinID

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// списание за вращение с проверкой достаточности
	if _, err := s.balance.DebitWithTx(ctx, tx, tgID, rouletteSpinCost, domain.LedgerRouletteSpin, details); err != nil {
		return nil, err
	}

	// приз отдельной записью, чтобы история показывала и ставку и выигрыш
	if sector.PrizeStars > 0 {
		if _, err := s.balance.CreditWithTx(ctx, tx, tgID, sector.PrizeStars, domain.LedgerRoulettePrize, details); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, ErrLedgerWriteFailed
	}

	newBalance, err := s.balance.Balance(ctx, tgID)
	if err != nil {
		newBalance = 0
	}

	if s.audit != nil {
		s.audit.Log(ctx, tgID, domain.AuditActionRouletteSpin, domain.AuditCategoryRoulette, details)
	}

	return &SpinResult{
		SpinID:     spinID,
		SectorID:   sector.ID,
		Label:      sector.Label,
		PrizeStars: sector.PrizeStars,
		SpinAngle:  roulette.SpinAngle,
		NewBalance: newBalance,
	}, nil
}
