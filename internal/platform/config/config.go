package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Judge boundary. An empty JudgeAPIKey switches the client to
	// simulation mode.
	JudgeAPIURL            string
	JudgeAPIKey            string
	JudgeCallTimeoutSec    int
	JudgeMaxRetries        int
	JudgeRetryBaseDelay    time.Duration
	DispatchMaxRetries     int
	DispatchRetryBaseDelay time.Duration

	// Submission guardrails.
	MinCodeLength      int
	MaxCodeSizeBytes   int
	ThrottleWindowSec  int
	PollIntervalMs     int
	MaxPolls           int
	StallWarnAfterSec  int
	StallAlertAfterSec int

	// Battle sessions.
	BattleTTL           time.Duration
	DefaultProblemCount int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort: getEnv("API_PORT", "8080"),
		JWTKey:  []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:  time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "code_arena_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JudgeAPIURL:            getEnv("JUDGE_API_URL", "https://judge0-ce.p.rapidapi.com"),
		JudgeAPIKey:            getEnv("JUDGE_API_KEY", ""),
		JudgeCallTimeoutSec:    getEnvAsInt("JUDGE_CALL_TIMEOUT_SECONDS", 60),
		JudgeMaxRetries:        getEnvAsInt("JUDGE_MAX_RETRIES", 3),
		JudgeRetryBaseDelay:    time.Duration(getEnvAsInt("JUDGE_RETRY_BASE_DELAY_SECONDS", 2)) * time.Second,
		DispatchMaxRetries:     getEnvAsInt("DISPATCH_MAX_RETRIES", 3),
		DispatchRetryBaseDelay: time.Duration(getEnvAsInt("DISPATCH_RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,

		MinCodeLength:      getEnvAsInt("MIN_CODE_LENGTH", 10),
		MaxCodeSizeBytes:   getEnvAsInt("MAX_CODE_SIZE_BYTES", 10240),
		ThrottleWindowSec:  getEnvAsInt("THROTTLE_WINDOW_SECONDS", 10),
		PollIntervalMs:     getEnvAsInt("POLL_INTERVAL_MS", 1000),
		MaxPolls:           getEnvAsInt("MAX_POLLS", 60),
		StallWarnAfterSec:  getEnvAsInt("STALL_WARN_AFTER_SECONDS", 10),
		StallAlertAfterSec: getEnvAsInt("STALL_ALERT_AFTER_SECONDS", 30),

		BattleTTL:           time.Duration(getEnvAsInt("BATTLE_TTL_MINUTES", 120)) * time.Minute,
		DefaultProblemCount: getEnvAsInt("DEFAULT_PROBLEM_COUNT", 3),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
