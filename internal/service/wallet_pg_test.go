package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"stars_wallet/internal/ton"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// поднимает одноразовый postgres и накатывает схему кошелька
func setupWalletDB(t *testing.T) (*pgxpool.Pool, string, func()) {
	if testing.Short() {
		t.Skip("пропуск: тест требует docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("запуск контейнера: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("порт контейнера: %v", err)
	}

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/testdb?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("подключение к базе: %v", err)
	}

	migrations := []string{
		`CREATE TABLE users (
			id BIGSERIAL PRIMARY KEY,
			tg_id BIGINT NOT NULL UNIQUE,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			is_banned BOOLEAN NOT NULL DEFAULT FALSE,
			ban_reason TEXT NOT NULL DEFAULT '',
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			wallet_limited BOOLEAN NOT NULL DEFAULT FALSE,
			wallet_limit BIGINT NOT NULL DEFAULT 0,
			stars_cached BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE ledger (
			id BIGSERIAL PRIMARY KEY,
			tg_id BIGINT NOT NULL,
			type TEXT NOT NULL,
			amount_stars BIGINT NOT NULL,
			amount_rub DOUBLE PRECISION NOT NULL,
			rate_stars_per_rub DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			meta JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX ledger_charge_id_uniq ON ledger ((meta->>'charge_id')) WHERE meta ? 'charge_id'`,
	}
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			t.Fatalf("миграция: %v", err)
		}
	}

	return pool, dsn, func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
}

func seedWalletUser(t *testing.T, pool *pgxpool.Pool, tgID int64, username string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (tg_id, username) VALUES ($1, $2)`, tgID, username)
	if err != nil {
		t.Fatalf("создание пользователя %d: %v", tgID, err)
	}
}

func seedWalletCredit(t *testing.T, pool *pgxpool.Pool, tgID, amount int64) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO ledger (tg_id, type, amount_stars, amount_rub, rate_stars_per_rub, status, meta)
		VALUES ($1, 'stars_topup', $2, 0, 2.0, 'completed', '{}')
	`, tgID, amount)
	if err != nil {
		t.Fatalf("стартовое начисление %d: %v", tgID, err)
	}
}

func walletBalance(t *testing.T, pool *pgxpool.Pool, tgID int64) int64 {
	t.Helper()
	var balance int64
	err := pool.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(amount_stars), 0) FROM ledger
		WHERE tg_id = $1 AND status = 'completed'
	`, tgID).Scan(&balance)
	if err != nil {
		t.Fatalf("чтение баланса %d: %v", tgID, err)
	}
	return balance
}

// два одновременных перевода всего баланса: FOR UPDATE на отправителе
// обязан пропустить ровно один, второй падает с INSUFFICIENT_FUNDS
func TestTransfer_ConcurrentNoDoubleSpend(t *testing.T) {
	pool, _, cleanup := setupWalletDB(t)
	defer cleanup()
	ctx := context.Background()

	seedWalletUser(t, pool, 111, "alice")
	seedWalletUser(t, pool, 222, "bob")
	seedWalletUser(t, pool, 333, "carol")
	seedWalletCredit(t, pool, 111, 50)

	svc := NewTransferService(pool, nil, 2.0, 120)

	targets := []int64{222, 333}
	errs := make([]error, len(targets))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Transfer(ctx, 111, &TransferRequest{ToTgID: targets[i], AmountStars: 50})
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		var insErr *InsufficientFundsError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &insErr):
			insufficient++
			if insErr.Balance != 0 || insErr.Shortfall != 50 {
				t.Errorf("проигравший перевод должен видеть баланс 0 и нехватку 50, получил %+v", insErr)
			}
		default:
			t.Fatalf("неожиданная ошибка перевода: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("ожидался ровно один успех и один отказ, получено %d/%d", succeeded, insufficient)
	}

	if got := walletBalance(t, pool, 111); got != 0 {
		t.Errorf("баланс отправителя: ожидался 0, получен %d", got)
	}
	if got := walletBalance(t, pool, 222) + walletBalance(t, pool, 333); got != 50 {
		t.Errorf("зачислено получателям суммарно %d, ожидалось 50", got)
	}

	var rows int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger`).Scan(&rows); err != nil {
		t.Fatalf("подсчет записей: %v", err)
	}
	// стартовое начисление плюс одна пара перевода
	if rows != 3 {
		t.Errorf("в ledger %d записей, ожидалось 3", rows)
	}
}

// конкурентная доставка одного charge_id: уникальный индекс пропускает
// ровно одну запись, остальные доставки ничего не начисляют
func TestHandleSuccessfulPayment_ConcurrentDuplicateCharge(t *testing.T) {
	pool, _, cleanup := setupWalletDB(t)
	defer cleanup()
	ctx := context.Background()

	seedWalletUser(t, pool, 111, "alice")

	topup := &TopupService{balance: NewBalanceService(pool, 2.0)}

	const deliveries = 4
	errs := make([]error, deliveries)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = topup.HandleSuccessfulPayment(ctx, 111, 50, "chg-1")
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("доставка %d: %v", i, err)
		}
	}

	if got := walletBalance(t, pool, 111); got != 50 {
		t.Errorf("баланс после %d доставок: ожидалось 50, получено %d", deliveries, got)
	}

	// повторная доставка задним числом тоже ничего не меняет
	if err := topup.HandleSuccessfulPayment(ctx, 111, 50, "chg-1"); err != nil {
		t.Fatalf("повторная доставка: %v", err)
	}
	if got := walletBalance(t, pool, 111); got != 50 {
		t.Errorf("баланс после повторной доставки: ожидалось 50, получено %d", got)
	}
}

type staticTxSource struct {
	txs []ton.Transaction
}

func (s *staticTxSource) GetTransactions(ctx context.Context, account string, afterLt int64, limit int) ([]ton.Transaction, error) {
	return s.txs, nil
}

// при временной ошибке базы lastLt не двигается, депозит перечитывается
// и начисляется на следующем тике ровно один раз
func TestDepositWatcher_RetryAfterTransientFailure(t *testing.T) {
	pool, dsn, cleanup := setupWalletDB(t)
	defer cleanup()
	ctx := context.Background()

	seedWalletUser(t, pool, 111, "alice")

	src := &staticTxSource{txs: []ton.Transaction{{
		Hash:    "txhash-1",
		Lt:      77,
		Success: true,
		InMsg: &ton.Message{
			Value:       1_000_000_000, // 1 TON
			DecodedBody: &ton.DecodedBody{Text: "topup:111"},
		},
	}}}

	// закрытый пул имитирует временный отказ базы
	brokenPool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("второй пул: %v", err)
	}
	brokenPool.Close()

	broken := NewDepositWatcher(brokenPool, src, NewBalanceService(brokenPool, 2.0), nil, "wallet", 250, time.Minute)
	broken.checkOnce()
	if broken.lastLt != 0 {
		t.Fatalf("lastLt сдвинут при отказе базы: %d, депозит будет потерян", broken.lastLt)
	}

	// живая база: тот же депозит обрабатывается и курсор двигается
	w := NewDepositWatcher(pool, src, NewBalanceService(pool, 2.0), nil, "wallet", 250, time.Minute)
	w.checkOnce()
	if w.lastLt != 77 {
		t.Fatalf("lastLt после обработки: ожидалось 77, получено %d", w.lastLt)
	}
	wantStars := ton.NanoToStars(1_000_000_000, 250)
	if got := walletBalance(t, pool, 111); got != wantStars {
		t.Errorf("баланс после депозита: ожидалось %d, получено %d", wantStars, got)
	}

	// повторное чтение тех же транзакций не начисляет второй раз
	w.checkOnce()
	if got := walletBalance(t, pool, 111); got != wantStars {
		t.Errorf("баланс после перечитывания: ожидалось %d, получено %d", wantStars, got)
	}
}

var _ TransactionSource = (*ton.Client)(nil)
