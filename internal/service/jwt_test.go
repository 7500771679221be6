package service

import (
	"testing"

	"stars_wallet/internal/domain"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := IssueToken(111, domain.RoleUser)
	if err != nil {
		t.Fatalf("не удалось выдать токен: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("не удалось разобрать токен: %v", err)
	}
	if claims.TgID != 111 || claims.Role != domain.RoleUser {
		t.Fatalf("неверные claims: %+v", claims)
	}
}

func TestJWTTampered(t *testing.T) {
	InitJWT("test-secret")

	token, err := IssueToken(111, domain.RoleUser)
	if err != nil {
		t.Fatalf("не удалось выдать токен: %v", err)
	}

	if _, err := ParseToken(token + "x"); err == nil {
		t.Fatalf("испорченный токен не должен проходить")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	InitJWT("secret-one")
	token, err := IssueToken(111, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("не удалось выдать токен: %v", err)
	}

	InitJWT("secret-two")
	if _, err := ParseToken(token); err == nil {
		t.Fatalf("токен с чужим секретом не должен проходить")
	}
}
