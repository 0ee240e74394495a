package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret        string
	DefaultFromEmail string
	DefaultReplyTo   string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[CONFIG] no .env file found, using system ENV")
		} else {
			log.Println("[CONFIG] .env file loaded")
		}
	} else {
		log.Println("[CONFIG] running on Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	DefaultFromEmail = GetEnv("DEFAULT_FROM_EMAIL", "noreply@examstore.local")
	DefaultReplyTo = GetEnv("DEFAULT_REPLY_TO_EMAIL", DefaultFromEmail)

	if JWTSecret == "" {
		log.Println("[CONFIG] WARNING: JWT_SECRET is not set")
	}

	// Dummy gateway must never reach production. Hard stop at boot, not a
	// runtime branch someone can miss.
	if IsProduction() && GetBool("USE_DUMMY_PAYMENT_GATEWAY", false) {
		log.Fatal("[CONFIG] USE_DUMMY_PAYMENT_GATEWAY=true is not allowed in production")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func GetBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetList reads a comma-separated env var into a trimmed slice.
// Empty entries are dropped.
func GetList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func IsDebug() bool {
	return GetBool("DEBUG", false)
}

func IsProduction() bool {
	env := strings.ToLower(GetEnv("APP_ENV", GetEnv("RAILWAY_ENVIRONMENT", "development")))
	return env == "production"
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.LogLevel = level
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[INFO] "+msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[WARN] "+msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[ERROR] "+msg, data...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	if err != nil {
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	} else if elapsed > l.SlowThreshold {
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
