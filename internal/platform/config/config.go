package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr        string
	LogLevel    string
	DatabaseURL string
	Redis       RedisConfig

	// AdminToken guards administrative endpoints. Administrative identity is
	// an explicit caller credential, never ambient session state.
	AdminToken string

	OTP       OTPConfig
	Assertion AssertionConfig

	// CutoffWindow is how long before the exam date registration closes.
	CutoffWindow time.Duration

	// ImportBatchSize is the number of profile rows submitted per import
	// batch. It trades per-request overhead against failure blast radius.
	ImportBatchSize int

	ShutdownTimeout time.Duration
}

// RedisConfig holds connection settings for the optional Redis backend.
// An empty URL means Redis is not configured and in-memory stores are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// OTPConfig controls challenge issuance and verification.
type OTPConfig struct {
	TTL        time.Duration
	CodeLength int

	// IssueLimit / IssueWindow bound how many challenges one address may
	// request inside the sliding window.
	IssueLimit  int
	IssueWindow time.Duration
}

// AssertionConfig controls the verified-contact assertion tokens issued
// after a successful OTP verification.
type AssertionConfig struct {
	SigningKey string
	TTL        time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:        envString("EXAMREG_ADDR", ":8080"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AdminToken:  envString("ADMIN_TOKEN", "dev-admin-token-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		OTP: OTPConfig{
			TTL:         envDuration("OTP_TTL", 5*time.Minute),
			CodeLength:  envInt("OTP_CODE_LENGTH", 6),
			IssueLimit:  envInt("OTP_ISSUE_LIMIT", 3),
			IssueWindow: envDuration("OTP_ISSUE_WINDOW", 15*time.Minute),
		},
		Assertion: AssertionConfig{
			SigningKey: envString("ASSERTION_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TTL:        envDuration("ASSERTION_TTL", 10*time.Minute),
		},
		CutoffWindow:    time.Duration(envInt("REGISTRATION_CUTOFF_DAYS", 7)) * 24 * time.Hour,
		ImportBatchSize: envInt("IMPORT_BATCH_SIZE", 200),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
