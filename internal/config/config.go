package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DbHost         string
	DbPort         string
	DbUser         string
	DbPass         string
	DbName         string
	DbSSLMode      string
	DbMaxConns     int32
	DbAutoMigrate  bool
	AllowedOrigins []string

	JWTSecret     string
	ResetTokenTTL time.Duration

	Log      string
	LogLevel string
	LogDir   string
	Env      string // dev|prod

	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string
	SMTPRequireTLS bool
	SMTPTimeout    time.Duration

	ResetCodeLength int
	ResetCodeTTL    time.Duration
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Не логирует: logger инициализируется уже из конфига.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	p := &parser{}

	cfg := &Config{
		Port:           def(os.Getenv("PORT"), "8080"),
		DbHost:         os.Getenv("DB_HOST"),
		DbPort:         def(os.Getenv("DB_PORT"), "5432"),
		DbUser:         os.Getenv("DB_USER"),
		DbPass:         os.Getenv("DB_PASSWORD"),
		DbName:         os.Getenv("DB_NAME"),
		DbSSLMode:      def(os.Getenv("DB_SSLMODE"), "disable"),
		DbMaxConns:     int32(p.integer("DB_MAX_CONNS", def(os.Getenv("DB_MAX_CONNS"), "10"))),
		DbAutoMigrate:  p.boolean("DB_AUTO_MIGRATE", def(os.Getenv("DB_AUTO_MIGRATE"), "false")),
		AllowedOrigins: splitList(def(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		ResetTokenTTL: p.duration("RESET_TOKEN_TTL", def(os.Getenv("RESET_TOKEN_TTL"), "10m")),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		LogDir:   def(os.Getenv("LOG_DIR"), "logs"),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),

		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       def(os.Getenv("SMTP_PORT"), "587"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPRequireTLS: p.boolean("SMTP_REQUIRE_TLS", def(os.Getenv("SMTP_REQUIRE_TLS"), "true")),
		SMTPTimeout:    p.duration("SMTP_TIMEOUT", def(os.Getenv("SMTP_TIMEOUT"), "10s")),

		ResetCodeLength: p.integer("RESET_CODE_LENGTH", def(os.Getenv("RESET_CODE_LENGTH"), "6")),
		ResetCodeTTL:    p.duration("RESET_CODE_TTL", def(os.Getenv("RESET_CODE_TTL"), "10m")),
	}
	cfg.SMTPFrom = def(os.Getenv("SMTP_FROM"), cfg.SMTPUser)

	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	// Критичные: БД
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	if c.ResetCodeLength <= 0 {
		return nil, fmt.Errorf("RESET_CODE_LENGTH must be positive, got %d", c.ResetCodeLength)
	}
	if c.ResetCodeTTL <= 0 {
		return nil, fmt.Errorf("RESET_CODE_TTL must be positive, got %s", c.ResetCodeTTL)
	}

	// JWT — без секрета токен сброса подписывать нечем
	if strings.TrimSpace(c.JWTSecret) == "" {
		warnings = append(warnings, "JWT_SECRET is empty, /reset_password will reject every token")
	}

	// SMTP — предупреждение
	if c.SMTPHost == "" || c.SMTPUser == "" {
		warnings = append(warnings, "SMTP is not fully configured")
	}
	if !c.SMTPRequireTLS {
		warnings = append(warnings, "SMTP_REQUIRE_TLS=false, codes may be sent in plaintext")
	}

	return warnings, nil
}

// GetDSN — полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe — DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// parser запоминает первую ошибку разбора, чтобы LoadConfig вернул её одной.
type parser struct {
	err error
}

func (p *parser) fail(key, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
}

func (p *parser) integer(key, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return n
}

func (p *parser) boolean(key, v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return b
}

func (p *parser) duration(key, v string) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
