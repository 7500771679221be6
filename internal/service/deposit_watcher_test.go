package service

import (
	"testing"

	"stars_wallet/internal/ton"
)

func TestParseTopupMemo(t *testing.T) {
	cases := []struct {
		text string
		want int64
		ok   bool
	}{
		{"topup:111", 111, true},
		{"  topup:42  ", 42, true},
		{"topup:-5", 0, false},
		{"topup:abc", 0, false},
		{"deposit:111", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		got, ok := parseTopupMemo(&ton.Message{DecodedBody: &ton.DecodedBody{Text: c.text}})
		if ok != c.ok || got != c.want {
			t.Fatalf("memo %q: ожидалось (%d,%v), получили (%d,%v)", c.text, c.want, c.ok, got, ok)
		}
	}

	if _, ok := parseTopupMemo(&ton.Message{}); ok {
		t.Fatalf("сообщение без тела не должно проходить")
	}
}
