package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/service"

	"github.com/gin-gonic/gin"
)

func testContext(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c
}

func TestExtractInitData_AuthorizationHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/profile?init_data=from_query", nil)
	req.Header.Set("Authorization", "tma from_header")

	if got := ExtractInitData(testContext(req)); got != "from_header" {
		t.Fatalf("заголовок должен иметь приоритет над query, получено %q", got)
	}
}

func TestExtractInitData_DedicatedHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/profile?init_data=from_query", nil)
	req.Header.Set("X-Telegram-Init-Data", "from_x_header")

	if got := ExtractInitData(testContext(req)); got != "from_x_header" {
		t.Fatalf("ожидалось from_x_header, получено %q", got)
	}
}

func TestExtractInitData_QueryOverBody(t *testing.T) {
	body := bytes.NewBufferString(`{"init_data":"from_body"}`)
	req := httptest.NewRequest("POST", "/api/transfer?init_data=from_query", body)
	req.Header.Set("Content-Type", "application/json")

	if got := ExtractInitData(testContext(req)); got != "from_query" {
		t.Fatalf("query должен иметь приоритет над телом, получено %q", got)
	}
}

func TestExtractInitData_Body(t *testing.T) {
	body := bytes.NewBufferString(`{"init_data":"from_body","amount_stars":5}`)
	req := httptest.NewRequest("POST", "/api/transfer", body)
	req.Header.Set("Content-Type", "application/json")

	c := testContext(req)
	if got := ExtractInitData(c); got != "from_body" {
		t.Fatalf("ожидалось from_body, получено %q", got)
	}

	// тело должно остаться читаемым для хендлера
	var parsed struct {
		AmountStars int64 `json:"amount_stars"`
	}
	if err := c.ShouldBindJSON(&parsed); err != nil || parsed.AmountStars != 5 {
		t.Fatalf("тело запроса не восстановлено после извлечения: %v", err)
	}
}

func TestExtractInitData_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/profile", nil)
	if got := ExtractInitData(testContext(req)); got != "" {
		t.Fatalf("ожидалась пустая строка, получено %q", got)
	}
}

func TestStaticSecretAuth(t *testing.T) {
	auth := &StaticSecretAuth{Secret: "s3cret"}

	req := httptest.NewRequest("GET", "/api/admin/stats", nil)
	identity, err := auth.Authenticate(testContext(req))
	if identity != nil || err != nil {
		t.Fatal("без заголовка стратегия должна быть неприменима")
	}

	req.Header.Set("X-Cron-Secret", "wrong")
	if _, err := auth.Authenticate(testContext(req)); err == nil {
		t.Fatal("неверный секрет должен быть отклонен")
	}

	req.Header.Set("X-Cron-Secret", "s3cret")
	identity, err = auth.Authenticate(testContext(req))
	if err != nil || identity == nil || !identity.IsAdmin {
		t.Fatalf("верный секрет должен давать админа: %v", err)
	}
}

func TestJWTAuth(t *testing.T) {
	service.InitJWT("test-secret")
	token, err := service.IssueToken(42, domain.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	auth := &JWTAuth{}

	req := httptest.NewRequest("GET", "/api/profile", nil)
	identity, err := auth.Authenticate(testContext(req))
	if identity != nil || err != nil {
		t.Fatal("без Bearer заголовка стратегия должна быть неприменима")
	}

	req.Header.Set("Authorization", "Bearer "+token)
	identity, err = auth.Authenticate(testContext(req))
	if err != nil || identity == nil {
		t.Fatalf("валидный токен отклонен: %v", err)
	}
	if identity.TgID != 42 || identity.IsAdmin {
		t.Fatalf("неожиданная личность: %+v", identity)
	}

	// tg_id из allow-list получает права админа даже с ролью user
	allowlisted := &JWTAuth{AdminIDs: []int64{42}}
	identity, err = allowlisted.Authenticate(testContext(req))
	if err != nil || !identity.IsAdmin {
		t.Fatal("пользователь из allow-list должен быть админом")
	}

	req.Header.Set("Authorization", "Bearer "+token+"x")
	if _, err := auth.Authenticate(testContext(req)); err == nil {
		t.Fatal("испорченный токен должен быть отклонен")
	}
}

func TestStaticSecretAuth_EmptyConfigured(t *testing.T) {
	auth := &StaticSecretAuth{Secret: ""}

	req := httptest.NewRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("X-Cron-Secret", "")
	identity, err := auth.Authenticate(testContext(req))
	if identity != nil || err != nil {
		t.Fatal("пустой заголовок не должен активировать стратегию")
	}

	// пустой настроенный секрет никогда не матчится
	req.Header.Set("X-Cron-Secret", "anything")
	if _, err := auth.Authenticate(testContext(req)); err == nil {
		t.Fatal("при пустом настроенном секрете доступ должен быть закрыт")
	}
}
