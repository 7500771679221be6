package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/http/middleware"
	"stars_wallet/internal/service"

	"github.com/gin-gonic/gin"
)

func TestTransferBodyNormalize_Canonical(t *testing.T) {
	body := &transferBody{ToTgID: 222, AmountStars: 5, Note: "чай"}
	req := body.normalize()

	if req.ToTgID != 222 || req.AmountStars != 5 || req.Note != "чай" {
		t.Fatalf("канонические поля потеряны: %+v", req)
	}
}

func TestTransferBodyNormalize_LegacyAliases(t *testing.T) {
	body := &transferBody{LegacyToID: 222, LegacyAmount: 5}
	req := body.normalize()

	if req.ToTgID != 222 || req.AmountStars != 5 {
		t.Fatalf("легаси алиасы не подхвачены: %+v", req)
	}
}

func TestTransferBodyNormalize_CanonicalWinsOverLegacy(t *testing.T) {
	body := &transferBody{ToTgID: 222, AmountStars: 5, LegacyToID: 999, LegacyAmount: 100}
	req := body.normalize()

	if req.ToTgID != 222 || req.AmountStars != 5 {
		t.Fatalf("канонические поля должны побеждать алиасы: %+v", req)
	}
}

func TestTransferResponse_FlatShape(t *testing.T) {
	raw, err := json.Marshal(transferResponse(&domain.TransferResult{
		TransferID:  "a1b2c3",
		FromTgID:    111,
		ToTgID:      222,
		AmountStars: 5,
		AmountRub:   2.5,
	}))
	if err != nil {
		t.Fatalf("маршалинг ответа: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("анмаршалинг ответа: %v", err)
	}

	if _, nested := got["transfer"]; nested {
		t.Fatal("поля перевода должны лежать на верхнем уровне, без вложенного объекта")
	}
	if got["ok"] != true {
		t.Errorf("ok: ожидалось true, получено %v", got["ok"])
	}
	if got["transfer_id"] != "a1b2c3" {
		t.Errorf("transfer_id: ожидалось a1b2c3, получено %v", got["transfer_id"])
	}
	if got["from_tg_id"] != float64(111) || got["to_tg_id"] != float64(222) {
		t.Errorf("tg_id на верхнем уровне: %v / %v", got["from_tg_id"], got["to_tg_id"])
	}
	if got["amount_stars"] != float64(5) || got["amount_rub"] != 2.5 {
		t.Errorf("суммы на верхнем уровне: %v / %v", got["amount_stars"], got["amount_rub"])
	}
}

func TestTransferStars_MalformedBodySingleResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{}

	r := gin.New()
	r.POST("/api/transfer", func(c *gin.Context) {
		c.Set(middleware.IdentityKey, &middleware.Identity{TgID: 111, Role: domain.RoleUser, Via: "jwt"})
		h.TransferStars(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/transfer", strings.NewReader("{не json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("ожидался 400, получен %d", w.Code)
	}

	// тело обязано быть ровно одним json объектом: ShouldBindJSON ничего
	// не пишет сам, второго ответа быть не должно
	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("тело не является одним json объектом: %v (%q)", err, w.Body.String())
	}
	if resp.OK || resp.Error != "BAD_AMOUNT" {
		t.Errorf("ожидался {ok:false, error:BAD_AMOUNT}, получено %+v", resp)
	}
}

func TestWalletErrorStatus(t *testing.T) {
	cases := []struct {
		err  *service.WalletError
		want int
	}{
		{service.ErrBadAmount, http.StatusBadRequest},
		{service.ErrSelfTransferForbidden, http.StatusBadRequest},
		{service.ErrSenderNotFound, http.StatusNotFound},
		{service.ErrReceiverNotFound, http.StatusNotFound},
		{service.ErrSenderBanned, http.StatusForbidden},
		{service.ErrWalletLimited, http.StatusForbidden},
		{service.ErrLedgerWriteFailed, http.StatusInternalServerError},
		{service.ErrPromoAlreadyRedeemed, http.StatusBadRequest},
		{service.ErrTaskNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		if got := walletErrorStatus(tc.err); got != tc.want {
			t.Errorf("%s: ожидался статус %d, получен %d", tc.err.Code, tc.want, got)
		}
	}
}
