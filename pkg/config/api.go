package config

import (
	"strings"
	"time"
)

// APIConfig holds runtime configuration for the auth API service.
type APIConfig struct {
	Environment           string
	Addr                  string
	DatabaseURL           string
	MigrationsDir         string
	JWTSecret             string
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	GoogleWebClientID     string
	GoogleServerClientID  string
	GoogleAndroidClientID string
	GoogleIOSClientID     string
	GoogleJWKSURL         string
	GoogleJWKSCacheTTL    time.Duration
	GoogleJWKSTimeout     time.Duration
	PhoneCodeTTL          time.Duration
	PhoneCodeLength       int
	SMSGatewayURL         string
	SMSGatewayToken       string
	SMSGatewayTimeout     time.Duration
	RateLimitRedisAddr    string
	RateLimitRedisPass    string
	RateLimitRedisDB      int
}

// GoogleClientIDs returns every configured Google client identifier. These
// are the accepted audience values for ID token validation.
func (c APIConfig) GoogleClientIDs() []string {
	ids := make([]string, 0, 4)
	for _, id := range []string{
		c.GoogleWebClientID,
		c.GoogleServerClientID,
		c.GoogleAndroidClientID,
		c.GoogleIOSClientID,
	} {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:           GetString("APP_ENV", "development"),
		Addr:                  GetString("API_ADDR", ":8080"),
		DatabaseURL:           GetString("DATABASE_URL", "postgres://auth:auth@db:5432/auth?sslmode=disable"),
		MigrationsDir:         GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:             GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL:        time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTokenTTL:       time.Duration(GetInt("REFRESH_TOKEN_TTL_HOURS", 720)) * time.Hour,
		GoogleWebClientID:     GetString("GOOGLE_WEB_CLIENT_ID", ""),
		GoogleServerClientID:  GetString("GOOGLE_SERVER_CLIENT_ID", ""),
		GoogleAndroidClientID: GetString("GOOGLE_ANDROID_CLIENT_ID", ""),
		GoogleIOSClientID:     GetString("GOOGLE_IOS_CLIENT_ID", ""),
		GoogleJWKSURL:         GetString("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
		GoogleJWKSCacheTTL:    time.Duration(GetInt("GOOGLE_JWKS_CACHE_TTL_MIN", 60)) * time.Minute,
		GoogleJWKSTimeout:     time.Duration(GetInt("GOOGLE_JWKS_TIMEOUT_SECONDS", 5)) * time.Second,
		PhoneCodeTTL:          time.Duration(GetInt("PHONE_CODE_TTL_SECONDS", 300)) * time.Second,
		PhoneCodeLength:       GetInt("PHONE_CODE_LENGTH", 6),
		SMSGatewayURL:         GetString("SMS_GATEWAY_URL", ""),
		SMSGatewayToken:       GetString("SMS_GATEWAY_TOKEN", ""),
		SMSGatewayTimeout:     time.Duration(GetInt("SMS_GATEWAY_TIMEOUT_SECONDS", 5)) * time.Second,
		RateLimitRedisAddr:    GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:    GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:      GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
