package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ClientConfig drives the live client: where the page origin is, how the
// session refreshes, and how aggressively it reconnects.
type ClientConfig struct {
	Origin                string
	LivePath              string
	APIBase               string
	RefreshBefore         time.Duration
	ReconcileInterval     time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectMaxAttempts  int
	ReconnectCooldown     time.Duration
	StorePath             string
	DrawStrokeInterval    time.Duration
	LogFile               string
}

// ServerConfig drives cmd/devserver.
type ServerConfig struct {
	Port                  string
	AllowedOrigins        []string
	Environment           string
	JWTSecret             string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	DatabaseURL           string
	DBMaxOpenConns        int
	DBMaxIdleConns        int
	DBConnMaxLifetimeMin  int
	RedisURL              string
	RedisPassword         string
	WSSendBuffer          int
	WSPingInterval        time.Duration
	WSMaxMessageSize      int64
	GameCleanupDelay      time.Duration
	GameReconnectWindow   time.Duration
	BcryptCost            int
}

var AppConfig *ServerConfig

func LoadClientConfig() *ClientConfig {
	return &ClientConfig{
		Origin:                GetEnv("LIVE_ORIGIN", "http://localhost:3000"),
		LivePath:              GetEnv("LIVE_PATH", "/api/live"),
		APIBase:               GetEnv("API_BASE", "/api"),
		RefreshBefore:         GetEnvAsDuration("REFRESH_BEFORE", 60*time.Second),
		ReconcileInterval:     GetEnvAsDuration("RECONCILE_INTERVAL", time.Second),
		ReconnectInitialDelay: GetEnvAsDuration("RECONNECT_INITIAL_DELAY", 5*time.Second),
		ReconnectMaxDelay:     GetEnvAsDuration("RECONNECT_MAX_DELAY", 10*time.Second),
		ReconnectMaxAttempts:  GetEnvAsInt("RECONNECT_MAX_ATTEMPTS", 10),
		ReconnectCooldown:     GetEnvAsDuration("RECONNECT_COOLDOWN", time.Minute),
		StorePath:             GetEnv("STORE_PATH", "arcade.db"),
		DrawStrokeInterval:    GetEnvAsDuration("DRAW_STROKE_INTERVAL", 100*time.Millisecond),
		LogFile:               GetEnv("LOG_FILE", "arcade-client.log"),
	}
}

func LoadServerConfig() *ServerConfig {
	allowedOrigins := []string{"http://localhost:3000"}
	if extra := GetEnv("ALLOWED_ORIGINS", ""); extra != "" {
		for _, origin := range strings.Split(extra, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	AppConfig = &ServerConfig{
		Port:                  GetEnv("PORT", "3000"),
		AllowedOrigins:        allowedOrigins,
		Environment:           GetEnv("ENVIRONMENT", "development"),
		JWTSecret:             GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		AccessTokenTTLMinutes: GetEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:   GetEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 30),
		DatabaseURL:           GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", "")),
		DBMaxOpenConns:        GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:        GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin:  GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),
		RedisURL:              GetEnv("REDIS_URL", ""),
		RedisPassword:         GetEnv("REDIS_PASSWORD", ""),
		WSSendBuffer:          GetEnvAsInt("WS_SEND_BUFFER", 64),
		WSPingInterval:        GetEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
		WSMaxMessageSize:      int64(GetEnvAsInt("WS_MAX_MESSAGE_SIZE", 64*1024)),
		GameCleanupDelay:      GetEnvAsDuration("GAME_CLEANUP_DELAY", 5*time.Minute),
		GameReconnectWindow:   GetEnvAsDuration("GAME_RECONNECT_WINDOW", 60*time.Second),
		BcryptCost:            GetEnvAsInt("BCRYPT_COST", 12),
	}

	return AppConfig
}

func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

func (c *ServerConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *ServerConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsDuration accepts Go durations ("1500ms", "5s") or a bare integer
// meaning milliseconds, which is how the web client expressed its constants.
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration value for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
