package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	VacationAPI VacationAPIConfig
	Lists       ListConfig
	Form        FormConfig
	Session     SessionConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	Exports     ExportConfig
}

// VacationAPIConfig points the console at the vacation management REST API.
type VacationAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ListConfig tunes the paginated list screens.
type ListConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	FetchTimeout    time.Duration
}

// FormConfig tunes the vacation request form.
type FormConfig struct {
	NoticeTTL time.Duration
}

// SessionConfig controls the browser session cookie and token lifetime.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig gates list exports.
type ExportConfig struct {
	Enabled bool
	MaxRows int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.VacationAPI = VacationAPIConfig{
		BaseURL: strings.TrimRight(v.GetString("VACATION_API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("VACATION_API_TIMEOUT"), 15*time.Second),
	}

	cfg.Lists = ListConfig{
		DefaultPageSize: positiveOr(v.GetInt("LIST_DEFAULT_PAGE_SIZE"), 10),
		MaxPageSize:     positiveOr(v.GetInt("LIST_MAX_PAGE_SIZE"), 100),
		FetchTimeout:    parseDuration(v.GetString("LIST_FETCH_TIMEOUT"), 20*time.Second),
	}

	cfg.Form = FormConfig{
		NoticeTTL: parseDuration(v.GetString("FORM_NOTICE_TTL"), 5*time.Second),
	}

	cfg.Session = SessionConfig{
		CookieName: v.GetString("SESSION_COOKIE_NAME"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 8*time.Hour),
		Secure:     cfg.Env == EnvProduction,
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exports = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
		MaxRows: positiveOr(v.GetInt("EXPORT_MAX_ROWS"), 500),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("VACATION_API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("VACATION_API_TIMEOUT", "15s")

	v.SetDefault("LIST_DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("LIST_MAX_PAGE_SIZE", 100)
	v.SetDefault("LIST_FETCH_TIMEOUT", "20s")

	v.SetDefault("FORM_NOTICE_TTL", "5s")

	v.SetDefault("SESSION_COOKIE_NAME", "vac_session")
	v.SetDefault("SESSION_TTL", "8h")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_MAX_ROWS", 500)
}

// viper reports a missing explicit config file as a plain fs error.
func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
