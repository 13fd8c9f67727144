package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ProfileProd は本番環境を表すPROFILEの値。
const ProfileProd = "prod"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// JWT
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// OAuth
	KakaoUserInfoURL string
	OAuthTimeout     time.Duration

	// S3
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string
	S3PublicDomain string
	UploadMaxSize  int64

	// Goal
	TimeZone *time.Location

	// Worker
	SettlementSchedule   string
	SettlementBatchSize  int
	TokenCleanupInterval time.Duration
	WorkerMetricsPort    string

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitUpload  int

	// Server
	ServerPort string
	Profile    string

	// CORS（カンマ区切りで複数指定可）
	CORSAllowedOrigin string
}

// IsProd は本番環境かを返す。本番では内部エラーの詳細をレスポンスに含めない。
func (c *Config) IsProd() bool {
	return c.Profile == ProfileProd
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	if cfg.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}

	cfg.S3PublicDomain = os.Getenv("S3_PUBLIC_DOMAIN")
	if cfg.S3PublicDomain == "" {
		missing = append(missing, "S3_PUBLIC_DOMAIN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", time.Hour)
	cfg.RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", 14*24*time.Hour)
	cfg.KakaoUserInfoURL = getEnvString("KAKAO_USER_INFO_URL", "")
	cfg.OAuthTimeout = getEnvDuration("OAUTH_TIMEOUT", 5*time.Second)
	cfg.S3Region = getEnvString("S3_REGION", "ap-northeast-2")
	cfg.S3AccessKey = getEnvString("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnvString("S3_SECRET_KEY", "")
	cfg.S3Endpoint = getEnvString("S3_ENDPOINT", "")
	cfg.UploadMaxSize = getEnvInt64("UPLOAD_MAX_SIZE", 10485760)
	cfg.SettlementSchedule = getEnvString("SETTLEMENT_SCHEDULE", "@every 10m")
	cfg.SettlementBatchSize = getEnvInt("SETTLEMENT_BATCH_SIZE", 100)
	cfg.TokenCleanupInterval = getEnvDuration("TOKEN_CLEANUP_INTERVAL", 24*time.Hour)
	cfg.WorkerMetricsPort = getEnvString("WORKER_METRICS_PORT", "9090")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitUpload = getEnvInt("RATE_LIMIT_UPLOAD", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.Profile = getEnvString("PROFILE", "dev")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	tz := getEnvString("TIME_ZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", tz, err)
	}
	cfg.TimeZone = loc

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
