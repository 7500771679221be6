package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все настройки приложения
type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string

	// статический секрет для кронов и внутренних вызовов (минует подпись телеграма)
	CronSecret string
	JWTSecret  string

	// курс: сколько звезд в одном рубле
	StarsPerRub float64
	// максимальный возраст auth_date в init_data
	InitDataMaxAge time.Duration
	// максимальная длина заметки к переводу
	TransferNoteLimit int

	AdminTelegramIDs []int64
	AdminBotEnabled  bool

	RedisAddr     string
	RedisPassword string

	// TON пополнения
	TonPlatformWallet string
	TonAPIKey         string
	TonTestnet        bool
	// сколько звезд за 1 TON
	StarsPerTON int64
}

// Load читает конфигурацию из окружения (.env подхватывается если есть)
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		BotToken:    getEnv("BOT_TOKEN", ""),

		CronSecret: getEnv("CRON_SECRET", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),

		StarsPerRub:       getEnvFloat("STARS_PER_RUB", 2.0),
		InitDataMaxAge:    time.Duration(getEnvInt("INIT_DATA_MAX_AGE", 3600)) * time.Second,
		TransferNoteLimit: int(getEnvInt("TRANSFER_NOTE_LIMIT", 120)),

		AdminTelegramIDs: parseIDList(getEnv("ADMIN_TELEGRAM_IDS", "")),
		AdminBotEnabled:  getEnv("ADMIN_BOT_ENABLED", "true") == "true",

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		TonPlatformWallet: getEnv("TON_PLATFORM_WALLET", ""),
		TonAPIKey:         getEnv("TON_API_KEY", ""),
		TonTestnet:        getEnv("TON_NETWORK", "mainnet") == "testnet",
		StarsPerTON:       getEnvInt("STARS_PER_TON", 250),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

// разбирает список telegram id через запятую, мусор молча пропускается
func parseIDList(s string) []int64 {
	if s == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
