package service

import (
	"strings"
	"testing"

	"stars_wallet/internal/domain"
)

func TestBuildTransferEntries_Conservation(t *testing.T) {
	debit, credit := BuildTransferEntries(111, 222, 5, 2.0, "спасибо", "tid-1")

	// что ушло у отправителя, то пришло получателю
	if debit.AmountStars+credit.AmountStars != 0 {
		t.Fatalf("сумма пары должна быть нулевой: %d + %d", debit.AmountStars, credit.AmountStars)
	}
	if debit.AmountRub+credit.AmountRub != 0 {
		t.Fatalf("рублевая сумма пары должна быть нулевой")
	}
	if debit.AmountStars != -5 || credit.AmountStars != 5 {
		t.Fatalf("ожидались -5/+5, получили %d/%d", debit.AmountStars, credit.AmountStars)
	}
}

func TestBuildTransferEntries_SharedCorrelationID(t *testing.T) {
	debit, credit := BuildTransferEntries(111, 222, 5, 2.0, "", "tid-2")

	if debit.Meta[domain.MetaTransferID] != "tid-2" || credit.Meta[domain.MetaTransferID] != "tid-2" {
		t.Fatalf("обе записи должны нести один transfer_id")
	}
	if debit.Type != domain.LedgerP2PSend || credit.Type != domain.LedgerP2PRecv {
		t.Fatalf("неверные типы записей: %s / %s", debit.Type, credit.Type)
	}
	if debit.Status != domain.LedgerStatusCompleted || credit.Status != domain.LedgerStatusCompleted {
		t.Fatalf("записи перевода должны быть completed")
	}
}

func TestBuildTransferEntries_RateStored(t *testing.T) {
	debit, credit := BuildTransferEntries(111, 222, 5, 2.0, "", "tid-3")

	// курс фиксируется в каждой записи, а не применяется и забывается
	if debit.RateStarsPerRub != 2.0 || credit.RateStarsPerRub != 2.0 {
		t.Fatalf("курс должен сохраняться в записях")
	}
	if credit.AmountRub != 2.5 {
		t.Fatalf("5 звезд по курсу 2 зв/руб = 2.5 руб, получили %v", credit.AmountRub)
	}
}

func TestRubEquivalent(t *testing.T) {
	if got := RubEquivalent(10, 2.0); got != 5.0 {
		t.Fatalf("ожидалось 5.0, получили %v", got)
	}
	if got := RubEquivalent(10, 0); got != 0 {
		t.Fatalf("нулевой курс должен давать 0, получили %v", got)
	}
}

func TestTruncateNote(t *testing.T) {
	if got := TruncateNote("привет", 120); got != "привет" {
		t.Fatalf("короткая заметка не должна меняться")
	}

	long := strings.Repeat("ж", 200)
	got := TruncateNote(long, 120)
	if len([]rune(got)) != 120 {
		t.Fatalf("ожидалось 120 рун, получили %d", len([]rune(got)))
	}

	if got := TruncateNote("x", 0); got != "" {
		t.Fatalf("нулевой лимит должен отбрасывать заметку")
	}
}

func TestTransferValidationOrder(t *testing.T) {
	s := &TransferService{starsPerRub: 2.0, noteLimit: 120}

	// подмена отправителя бьется раньше всего остального, даже при кривой сумме
	_, err := s.Transfer(nil, 111, &TransferRequest{FromTgID: 999, ToTgID: 111, AmountStars: -5})
	if err != ErrFromIDMismatch {
		t.Fatalf("ожидался FROM_ID_MISMATCH, получили: %v", err)
	}

	// совпадающий from_tg_id допустим, дальше ловим сумму
	_, err = s.Transfer(nil, 111, &TransferRequest{FromTgID: 111, ToTgID: 222, AmountStars: 0})
	if err != ErrBadAmount {
		t.Fatalf("ожидался BAD_AMOUNT, получили: %v", err)
	}

	_, err = s.Transfer(nil, 111, &TransferRequest{ToTgID: -1, AmountStars: 5})
	if err != ErrBadIDs {
		t.Fatalf("ожидался BAD_IDS, получили: %v", err)
	}

	_, err = s.Transfer(nil, 111, &TransferRequest{ToTgID: 111, AmountStars: 5})
	if err != ErrSelfTransferForbidden {
		t.Fatalf("ожидался SELF_TRANSFER_FORBIDDEN, получили: %v", err)
	}
}
