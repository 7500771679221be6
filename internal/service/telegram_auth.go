package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"stars_wallet/internal/domain"
)

// Ошибка аутентификации с машиночитаемым кодом для ответа API
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string { return e.Code }

var (
	ErrNoAuth         = &AuthError{Code: "NO_AUTH"}
	ErrNoInitData     = &AuthError{Code: "NO_INIT_DATA"}
	ErrBadSignature   = &AuthError{Code: "BAD_SIGNATURE"}
	ErrExpired        = &AuthError{Code: "EXPIRED"}
	ErrNoUser         = &AuthError{Code: "NO_USER"}
	ErrForbidden      = &AuthError{Code: "FORBIDDEN"}
	ErrFromIDMismatch = &AuthError{Code: "FROM_ID_MISMATCH"}
)

// Схема вывода секретного ключа из токена бота.
// WebApp клиенты и заголовки от bot API подписываются по-разному
type SignatureScheme int

const (
	SchemeWebApp SignatureScheme = iota
	SchemeBotAPI
)

// небольшой допуск на рассинхронизацию часов вперед
const authDateForwardSkew = 5 * time.Minute

// Проверенная личность из init_data
type VerifiedIdentity struct {
	TgID   int64
	User   domain.TelegramUser
	Scheme SignatureScheme
	Values url.Values
}

// VerifyInitData проверяет HMAC init_data телеграма и возвращает проверенного пользователя.
// Пробует обе схемы подписи: сперва WebApp, затем bot API
func VerifyInitData(initData, botToken string, maxAge time.Duration) (*VerifiedIdentity, error) {
	return verifyInitDataAt(initData, botToken, maxAge, time.Now())
}

func verifyInitDataAt(initData, botToken string, maxAge time.Duration, now time.Time) (*VerifiedIdentity, error) {
	if strings.TrimSpace(initData) == "" {
		return nil, ErrNoInitData
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrBadSignature
	}

	providedHex := values.Get("hash")
	if providedHex == "" {
		return nil, ErrBadSignature
	}
	values.Del("hash")

	provided, err := hex.DecodeString(providedHex)
	if err != nil {
		return nil, ErrBadSignature
	}

	checkString := buildCheckString(values)

	scheme, ok := matchSignature(checkString, botToken, provided)
	if !ok {
		return nil, ErrBadSignature
	}

	// защита от replay: auth_date обязателен и должен быть свежим
	authDateStr := values.Get("auth_date")
	if authDateStr == "" {
		return nil, ErrExpired
	}
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return nil, ErrExpired
	}
	age := now.Unix() - authDate
	if age > int64(maxAge.Seconds()) || -age > int64(authDateForwardSkew.Seconds()) {
		return nil, ErrExpired
	}

	var tgUser domain.TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &tgUser); err != nil || tgUser.ID == 0 {
		return nil, ErrNoUser
	}

	return &VerifiedIdentity{
		TgID:   tgUser.ID,
		User:   tgUser,
		Scheme: scheme,
		Values: values,
	}, nil
}

// строит каноническую строку проверки: key=value по алфавиту через \n
func buildCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(values[k], ""))
	}
	return strings.Join(parts, "\n")
}

// сравнивает подпись по обеим схемам, сравнение за константное время
func matchSignature(checkString, botToken string, provided []byte) (SignatureScheme, bool) {
	if hmac.Equal(signWebApp(checkString, botToken), provided) {
		return SchemeWebApp, true
	}
	if hmac.Equal(signBotAPI(checkString, botToken), provided) {
		return SchemeBotAPI, true
	}
	return 0, false
}

// схема WebApp: secret = HMAC-SHA256(key="WebAppData", msg=botToken)
func signWebApp(checkString, botToken string) []byte {
	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))
	secret := secretKey.Sum(nil)

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(checkString))
	return h.Sum(nil)
}

// схема bot API: secret = SHA256(botToken)
func signBotAPI(checkString, botToken string) []byte {
	secret := sha256.Sum256([]byte(botToken))

	h := hmac.New(sha256.New, secret[:])
	h.Write([]byte(checkString))
	return h.Sum(nil)
}
