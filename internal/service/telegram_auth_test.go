package service

import (
	"encoding/hex"
	"net/url"
	"strconv"
	"testing"
	"time"
)

// собирает подписанную строку init_data для тестов
func buildInitData(t *testing.T, botToken string, scheme SignatureScheme, fields map[string]string) string {
	t.Helper()

	vals := url.Values{}
	for k, v := range fields {
		vals.Set(k, v)
	}

	checkString := buildCheckString(vals)

	var tag []byte
	if scheme == SchemeWebApp {
		tag = signWebApp(checkString, botToken)
	} else {
		tag = signBotAPI(checkString, botToken)
	}

	vals.Set("hash", hex.EncodeToString(tag))
	return vals.Encode()
}

func freshFields(tgID int64) map[string]string {
	return map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"user":      `{"id":` + strconv.FormatInt(tgID, 10) + `,"username":"u","first_name":"F"}`,
		"query_id":  "AAE1",
	}
}

func TestVerifyInitData_WebAppScheme(t *testing.T) {
	botToken := "123456:test-token"
	initData := buildInitData(t, botToken, SchemeWebApp, freshFields(111))

	id, err := VerifyInitData(initData, botToken, time.Hour)
	if err != nil {
		t.Fatalf("ожидалась валидная init data, получили: %v", err)
	}
	if id.TgID != 111 {
		t.Fatalf("ожидался tg_id 111, получили %d", id.TgID)
	}
	if id.Scheme != SchemeWebApp {
		t.Fatalf("ожидалась схема WebApp")
	}
}

func TestVerifyInitData_BotAPIScheme(t *testing.T) {
	botToken := "123456:test-token"
	initData := buildInitData(t, botToken, SchemeBotAPI, freshFields(222))

	id, err := VerifyInitData(initData, botToken, time.Hour)
	if err != nil {
		t.Fatalf("ожидалась валидная init data по схеме bot API, получили: %v", err)
	}
	if id.Scheme != SchemeBotAPI {
		t.Fatalf("ожидалась схема BotAPI")
	}
}

func TestVerifyInitData_TamperedHash(t *testing.T) {
	botToken := "123456:test-token"
	initData := buildInitData(t, botToken, SchemeWebApp, freshFields(111))

	vals, _ := url.ParseQuery(initData)
	h := []byte(vals.Get("hash"))
	// флипаем один символ подписи
	if h[0] == 'a' {
		h[0] = 'b'
	} else {
		h[0] = 'a'
	}
	vals.Set("hash", string(h))

	if _, err := VerifyInitData(vals.Encode(), botToken, time.Hour); err != ErrBadSignature {
		t.Fatalf("ожидался BAD_SIGNATURE, получили: %v", err)
	}
}

func TestVerifyInitData_TamperedField(t *testing.T) {
	botToken := "123456:test-token"
	initData := buildInitData(t, botToken, SchemeWebApp, freshFields(111))

	if _, err := VerifyInitData(initData+"&x=1", botToken, time.Hour); err != ErrBadSignature {
		t.Fatalf("ожидался BAD_SIGNATURE на дописанное поле, получили: %v", err)
	}
}

func TestVerifyInitData_WrongToken(t *testing.T) {
	initData := buildInitData(t, "123456:test-token", SchemeWebApp, freshFields(111))

	if _, err := VerifyInitData(initData, "654321:other-token", time.Hour); err != ErrBadSignature {
		t.Fatalf("ожидался BAD_SIGNATURE для чужого токена, получили: %v", err)
	}
}

func TestVerifyInitData_Expired(t *testing.T) {
	botToken := "123456:test-token"
	fields := freshFields(111)
	// подпись валидная, но auth_date старше часа
	fields["auth_date"] = strconv.FormatInt(time.Now().Add(-2*time.Hour).Unix(), 10)
	initData := buildInitData(t, botToken, SchemeWebApp, fields)

	if _, err := VerifyInitData(initData, botToken, time.Hour); err != ErrExpired {
		t.Fatalf("ожидался EXPIRED, получили: %v", err)
	}
}

func TestVerifyInitData_MissingAuthDate(t *testing.T) {
	botToken := "123456:test-token"
	fields := freshFields(111)
	delete(fields, "auth_date")
	initData := buildInitData(t, botToken, SchemeWebApp, fields)

	if _, err := VerifyInitData(initData, botToken, time.Hour); err != ErrExpired {
		t.Fatalf("ожидался EXPIRED без auth_date, получили: %v", err)
	}
}

func TestVerifyInitData_FutureAuthDate(t *testing.T) {
	botToken := "123456:test-token"
	fields := freshFields(111)
	fields["auth_date"] = strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	initData := buildInitData(t, botToken, SchemeWebApp, fields)

	if _, err := VerifyInitData(initData, botToken, time.Hour); err != ErrExpired {
		t.Fatalf("ожидался EXPIRED для auth_date из будущего, получили: %v", err)
	}
}

func TestVerifyInitData_NoUser(t *testing.T) {
	botToken := "123456:test-token"
	fields := freshFields(111)
	delete(fields, "user")
	initData := buildInitData(t, botToken, SchemeWebApp, fields)

	if _, err := VerifyInitData(initData, botToken, time.Hour); err != ErrNoUser {
		t.Fatalf("ожидался NO_USER, получили: %v", err)
	}
}

func TestVerifyInitData_BrokenUserJSON(t *testing.T) {
	botToken := "123456:test-token"
	fields := freshFields(111)
	fields["user"] = `{"id":"oops"`
	initData := buildInitData(t, botToken, SchemeWebApp, fields)

	if _, err := VerifyInitData(initData, botToken, time.Hour); err != ErrNoUser {
		t.Fatalf("ожидался NO_USER на битый json, получили: %v", err)
	}
}

func TestVerifyInitData_Empty(t *testing.T) {
	if _, err := VerifyInitData("", "123456:test-token", time.Hour); err != ErrNoInitData {
		t.Fatalf("ожидался NO_INIT_DATA, получили: %v", err)
	}
	if _, err := VerifyInitData("   ", "123456:test-token", time.Hour); err != ErrNoInitData {
		t.Fatalf("ожидался NO_INIT_DATA на пробелы, получили: %v", err)
	}
}

func TestVerifyInitData_NoHash(t *testing.T) {
	if _, err := VerifyInitData("auth_date=1&user=%7B%22id%22%3A1%7D", "t", time.Hour); err != ErrBadSignature {
		t.Fatalf("ожидался BAD_SIGNATURE без hash, получили: %v", err)
	}
}

// round-trip на произвольном наборе полей
func TestVerifyInitData_ArbitraryFields(t *testing.T) {
	botToken := "999:tok"
	fields := freshFields(42)
	fields["chat_type"] = "sender"
	fields["start_param"] = "ref_777"

	initData := buildInitData(t, botToken, SchemeWebApp, fields)

	id, err := VerifyInitData(initData, botToken, time.Hour)
	if err != nil {
		t.Fatalf("ожидалась валидная init data: %v", err)
	}
	if id.Values.Get("start_param") != "ref_777" {
		t.Fatalf("ожидалось сохранение полей после проверки")
	}
}
