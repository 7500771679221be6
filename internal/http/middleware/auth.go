package middleware

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"stars_wallet/internal/domain"
	"stars_wallet/internal/repository"
	"stars_wallet/internal/service"

	"github.com/gin-gonic/gin"
)

// ключ проверенной личности в контексте gin
const IdentityKey = "identity"

// Identity - проверенная личность вызывающего
type Identity struct {
	TgID    int64
	Role    domain.Role
	IsAdmin bool
	Via     string // static_secret | jwt | init_data
}

// Authenticator - одна стратегия аутентификации.
// (nil, nil) означает "стратегия неприменима, пробуй следующую"
type Authenticator interface {
	Authenticate(c *gin.Context) (*Identity, error)
}

// Auth пробует стратегии в заданном порядке, первая применимая решает
func Auth(auths ...Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, a := range auths {
			identity, err := a.Authenticate(c)
			if err != nil {
				code, status := authErrorCode(err)
				c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": code})
				return
			}
			if identity != nil {
				c.Set(IdentityKey, identity)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "NO_AUTH"})
	}
}

// AdminRequired пускает дальше только админов. ставится после Auth
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil || !identity.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}

// GetIdentity достает проверенную личность из контекста
func GetIdentity(c *gin.Context) *Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*Identity)
	return identity
}

func authErrorCode(err error) (string, int) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		if authErr == service.ErrForbidden {
			return authErr.Code, http.StatusForbidden
		}
		return authErr.Code, http.StatusUnauthorized
	}
	return "SERVER_ERROR", http.StatusInternalServerError
}

// --- статический секрет ---

// StaticSecretAuth - пре-шаред секрет для кронов и внутренних вызовов,
// минует проверку подписи телеграма целиком
type StaticSecretAuth struct {
	Secret string
}

func (a *StaticSecretAuth) Authenticate(c *gin.Context) (*Identity, error) {
	presented := c.GetHeader("X-Cron-Secret")
	if presented == "" {
		return nil, nil
	}
	if a.Secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(a.Secret)) != 1 {
		return nil, service.ErrForbidden
	}
	return &Identity{Role: domain.RoleAdmin, IsAdmin: true, Via: "static_secret"}, nil
}

// --- сессионный jwt ---

// JWTAuth - сессионный токен, выданный после логина через init_data
type JWTAuth struct {
	AdminIDs []int64
}

func (a *JWTAuth) Authenticate(c *gin.Context) (*Identity, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, nil
	}

	claims, err := service.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, service.ErrNoAuth
	}

	return &Identity{
		TgID:    claims.TgID,
		Role:    claims.Role,
		IsAdmin: claims.Role == domain.RoleAdmin || containsID(a.AdminIDs, claims.TgID),
		Via:     "jwt",
	}, nil
}

// --- init_data телеграма ---

// InitDataAuth проверяет подпись init_data и апсертит пользователя при входе
type InitDataAuth struct {
	BotToken string
	MaxAge   time.Duration
	AdminIDs []int64
	Users    *repository.UserRepository
}

func (a *InitDataAuth) Authenticate(c *gin.Context) (*Identity, error) {
	initData := ExtractInitData(c)
	if initData == "" {
		return nil, nil
	}

	verified, err := service.VerifyInitData(initData, a.BotToken, a.MaxAge)
	if err != nil {
		return nil, err
	}

	user, err := a.Users.Upsert(c.Request.Context(), &verified.User)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, service.ErrForbidden
	}

	return &Identity{
		TgID:    user.TgID,
		Role:    user.Role,
		IsAdmin: user.Role == domain.RoleAdmin || containsID(a.AdminIDs, user.TgID),
		Via:     "init_data",
	}, nil
}

// ExtractInitData достает init_data из запроса.
// порядок строгий: заголовок > query параметр > поле тела
func ExtractInitData(c *gin.Context) string {
	// заголовок Authorization: tma <init_data>
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "tma ") {
		return strings.TrimPrefix(header, "tma ")
	}
	// выделенный заголовок
	if header := c.GetHeader("X-Telegram-Init-Data"); header != "" {
		return header
	}
	// query параметр
	if q := c.Query("init_data"); q != "" {
		return q
	}
	// поле тела. тело восстанавливаем, чтобы хендлер мог его перечитать
	if c.Request.Body != nil && c.ContentType() == "application/json" {
		raw, err := io.ReadAll(c.Request.Body)
		if err == nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			var body struct {
				InitData string `json:"init_data"`
			}
			if json.Unmarshal(raw, &body) == nil && body.InitData != "" {
				return body.InitData
			}
		}
	}
	return ""
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
