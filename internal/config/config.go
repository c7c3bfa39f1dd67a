package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Exit codes used when required environment values are missing. The bot
// credential gets its own code so deploy tooling can tell a missing token
// apart from other misconfiguration.
const (
	ExitCodeMissingToken = 1
	ExitCodeMissingValue = 2
)

// MissingEnvError reports an absent required environment variable together
// with the process exit code it should terminate with.
type MissingEnvError struct {
	Key      string
	ExitCode int
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required environment variable %s", e.Key)
}

// Config aggregates runtime configuration for the bot.
type Config struct {
	Discord  DiscordConfig
	Relay    RelayConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	OpsAPI   OpsAPIConfig
	Audit    AuditConfig
}

// AuditConfig holds the optional audit webhook target.
type AuditConfig struct {
	WebhookURL string
}

// DiscordConfig holds gateway credentials and the guild topology the bot
// operates in.
type DiscordConfig struct {
	Token           string
	GuildID         string
	SupportChannel  string
	TicketCategory  string
	ArchiveCategory string
	SupportRoles    []string
	OpenButtonEmoji string
}

// RelayConfig tunes relay behavior.
type RelayConfig struct {
	CloseDeleteDelay time.Duration
	TypingThrottle   time.Duration
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// OpsAPIConfig defines the operational HTTP surface.
type OpsAPIConfig struct {
	Enabled               bool
	Host                  string
	Port                  string
	AdminKeyHash          string
	JWTSecret             string
	AccessTokenTTLMinutes int
	RequestTimeoutSeconds int
}

// Load reads configuration from environment variables. Required Discord
// values are validated here; callers map MissingEnvError to process exit.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Discord: DiscordConfig{
			Token:           os.Getenv("DISCORD_TOKEN"),
			GuildID:         os.Getenv("DISCORD_GUILD"),
			SupportChannel:  os.Getenv("SUPPORT_CHANNEL"),
			TicketCategory:  os.Getenv("TICKET_CATEGORY"),
			ArchiveCategory: os.Getenv("ARCHIVE_CATEGORY"),
			SupportRoles:    splitList(os.Getenv("SUPPORT_ROLES")),
			OpenButtonEmoji: os.Getenv("OPEN_BUTTON_EMOJI"),
		},
		Relay: RelayConfig{
			CloseDeleteDelay: time.Duration(getEnvAsInt("CLOSE_DELETE_DELAY_SECONDS", 30)) * time.Second,
			TypingThrottle:   time.Duration(getEnvAsInt("TYPING_THROTTLE_SECONDS", 8)) * time.Second,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OpsAPI: OpsAPIConfig{
			Enabled:               getEnvAsBool("OPS_API_ENABLED", true),
			Host:                  getEnv("OPS_API_HOST", "0.0.0.0"),
			Port:                  getEnv("OPS_API_PORT", "8080"),
			AdminKeyHash:          os.Getenv("OPS_ADMIN_KEY_HASH"),
			JWTSecret:             getEnv("OPS_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("OPS_ACCESS_TOKEN_TTL_MINUTES", 60),
			RequestTimeoutSeconds: getEnvAsInt("OPS_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Audit: AuditConfig{
			WebhookURL: getEnv("AUDIT_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.Discord.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the required Discord values, returning a MissingEnvError
// carrying the appropriate exit code for the first absent one.
func (d DiscordConfig) Validate() error {
	if d.Token == "" {
		return &MissingEnvError{Key: "DISCORD_TOKEN", ExitCode: ExitCodeMissingToken}
	}
	required := []struct {
		key   string
		value string
	}{
		{"SUPPORT_CHANNEL", d.SupportChannel},
		{"DISCORD_GUILD", d.GuildID},
		{"TICKET_CATEGORY", d.TicketCategory},
	}
	for _, req := range required {
		if req.value == "" {
			return &MissingEnvError{Key: req.key, ExitCode: ExitCodeMissingValue}
		}
	}
	if len(d.SupportRoles) == 0 {
		return &MissingEnvError{Key: "SUPPORT_ROLES", ExitCode: ExitCodeMissingValue}
	}
	return nil
}

// Addr returns the ops API bind address.
func (o OpsAPIConfig) Addr() string {
	return fmt.Sprintf("%s:%s", o.Host, o.Port)
}

// RequestTimeout returns the configured ops API request timeout.
func (o OpsAPIConfig) RequestTimeout() time.Duration {
	if o.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
