package service

import (
	"errors"
	"time"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

// секрет сессионных токенов, задается один раз при старте
var jwtSecret []byte

const sessionTTL = 24 * time.Hour

// InitJWT устанавливает секрет для сессионных токенов
func InitJWT(secret string) {
	if secret == "" {
		logger.Warn("JWT_SECRET не задан, сессии будут работать только через init_data")
		return
	}
	jwtSecret = []byte(secret)
}

// SessionClaims - полезная нагрузка сессионного токена
type SessionClaims struct {
	TgID int64       `json:"tg_id"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken выдает сессионный токен после успешной проверки init_data
func IssueToken(tgID int64, role domain.Role) (string, error) {
	if len(jwtSecret) == 0 {
		return "", errors.New("jwt не инициализирован")
	}

	claims := SessionClaims{
		TgID: tgID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken проверяет подпись и срок сессионного токена
func ParseToken(tokenString string) (*SessionClaims, error) {
	if len(jwtSecret) == 0 {
		return nil, errors.New("jwt не инициализирован")
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неожиданный метод подписи")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoAuth
	}
	if claims.TgID == 0 {
		return nil, ErrNoUser
	}
	return claims, nil
}
