package configs

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"schoolpay_backend/internals/helpers/logx"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env tidak ditemukan, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetBool(key string, def bool) bool {
	if v := GetEnv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func GetDuration(key string, def time.Duration) time.Duration {
	if v := GetEnv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// =======================
// CONFIG (diinject ke service saat konstruksi)
// =======================

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
}

func (c CacheConfig) Enabled() bool { return c.Host != "" }

type GatewayConfig struct {
	Provider string // "paymongo" | "midtrans"

	PayMongoSecretKey     string
	PayMongoPublicKey     string
	PayMongoWebhookSecret string
	PayMongoLiveMode      bool
	PayMongoBaseURL       string

	MidtransServerKey string
	MidtransUseProd   bool

	Timeout    time.Duration
	RetryCount int
}

type Config struct {
	AppEnv    string
	Port      string
	BaseURL   string
	JWTSecret string

	CorsOrigins []string

	SessionTTL          time.Duration
	ExpirySweepInterval time.Duration
	LateFeeSweepEvery   time.Duration

	DB      DBConfig
	Cache   CacheConfig
	Gateway GatewayConfig
}

func (c Config) IsDev() bool { return c.AppEnv == "dev" }

// Load membaca seluruh konfigurasi dari ENV (panggil LoadEnv dulu).
func Load() Config {
	origins := []string{}
	for _, o := range strings.Split(GetEnv("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		AppEnv:    GetEnv("APP_ENV", "prod"),
		Port:      GetEnv("PORT", "3000"),
		BaseURL:   strings.TrimRight(GetEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		JWTSecret: GetEnv("JWT_SECRET"),

		CorsOrigins: origins,

		SessionTTL:          GetDuration("CHECKOUT_SESSION_TTL", 24*time.Hour),
		ExpirySweepInterval: GetDuration("EXPIRY_SWEEP_INTERVAL", 15*time.Minute),
		LateFeeSweepEvery:   GetDuration("LATE_FEE_SWEEP_INTERVAL", 24*time.Hour),

		DB: DBConfig{
			User:     GetEnv("DB_USER"),
			Password: GetEnv("DB_PASSWORD"),
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "5432"),
			Name:     GetEnv("DB_NAME"),
			SSLMode:  GetEnv("DB_SSLMODE", "require"),
		},
		Cache: CacheConfig{
			Host:     GetEnv("CACHE_HOST"),
			Port:     GetEnv("CACHE_PORT", "6379"),
			Password: GetEnv("CACHE_PASSWORD"),
		},
		Gateway: GatewayConfig{
			Provider:              strings.ToLower(GetEnv("PAYMENT_GATEWAY", "paymongo")),
			PayMongoSecretKey:     GetEnv("PAYMONGO_SECRET_KEY"),
			PayMongoPublicKey:     GetEnv("PAYMONGO_PUBLIC_KEY"),
			PayMongoWebhookSecret: GetEnv("PAYMONGO_WEBHOOK_SECRET"),
			PayMongoLiveMode:      GetBool("PAYMONGO_LIVE_MODE", false),
			PayMongoBaseURL:       GetEnv("PAYMONGO_BASE_URL", "https://api.paymongo.com/v1"),
			MidtransServerKey:     GetEnv("MIDTRANS_SERVER_KEY"),
			MidtransUseProd:       GetBool("MIDTRANS_USE_PROD", false),
			Timeout:               GetDuration("GATEWAY_TIMEOUT", 10*time.Second),
			RetryCount:            2,
		},
	}
}

// Validate hanya memeriksa hal yang membuat proses tidak bisa jalan sama sekali.
// Gateway yang belum dikonfigurasi tetap boleh (checkout akan 503).
func (c Config) Validate() error {
	if c.DB.Name == "" || c.DB.User == "" {
		return errors.New("DB_NAME dan DB_USER wajib diisi")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET belum diset")
	}
	switch c.Gateway.Provider {
	case "paymongo", "midtrans":
	default:
		return errors.New("PAYMENT_GATEWAY harus paymongo atau midtrans")
	}
	return nil
}

// =======================
// GORM LOGGER (zap)
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger(dev bool) gormLogger.Interface {
	level := gormLogger.Warn
	if dev {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		logx.S().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		logx.S().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		logx.S().Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && !errors.Is(err, gormLogger.ErrRecordNotFound) && l.LogLevel >= gormLogger.Error:
		logx.S().Errorw("sql error", "file", file, "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		logx.S().Warnw("slow sql", "file", file, "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.LogLevel >= gormLogger.Info:
		logx.S().Debugw("sql", "file", file, "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
