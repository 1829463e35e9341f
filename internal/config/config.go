// Пакет config — загрузка и валидация конфигурации Backoffice
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Backoffice.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- JWT ---

	// Секрет подписи токенов (HS512)
	JWTSecret string
	// Время жизни access-токена
	AccessTokenTTL time.Duration
	// Время жизни refresh-токена
	RefreshTokenTTL time.Duration
	// Grace-окно принятия вытесненного refresh-токена
	TokenRenewGrace time.Duration

	// --- Мониторинг зависимостей ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// BO_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("BO_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("BO_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("BO_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// BO_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("BO_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("BO_LOG_LEVEL: %w", err)
	}

	// BO_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("BO_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("BO_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// BO_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("BO_DB_HOST")
	if err != nil {
		return nil, err
	}

	// BO_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("BO_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("BO_DB_PORT: %w", err)
	}

	// BO_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("BO_DB_NAME")
	if err != nil {
		return nil, err
	}

	// BO_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("BO_DB_USER")
	if err != nil {
		return nil, err
	}

	// BO_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("BO_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// BO_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("BO_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("BO_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- JWT ---

	// BO_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("BO_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// BO_ACCESS_TOKEN_TTL — время жизни access-токена (по умолчанию 5m)
	cfg.AccessTokenTTL, err = getEnvDuration("BO_ACCESS_TOKEN_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("BO_ACCESS_TOKEN_TTL: %w", err)
	}

	// BO_REFRESH_TOKEN_TTL — время жизни refresh-токена (по умолчанию 720h)
	cfg.RefreshTokenTTL, err = getEnvDuration("BO_REFRESH_TOKEN_TTL", 720*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("BO_REFRESH_TOKEN_TTL: %w", err)
	}

	// BO_TOKEN_RENEW_GRACE — grace-окно обновления токена (по умолчанию 3s)
	cfg.TokenRenewGrace, err = getEnvDuration("BO_TOKEN_RENEW_GRACE", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BO_TOKEN_RENEW_GRACE: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// BO_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию backoffice)
	cfg.DephealthGroup = getEnvDefault("BO_DEPHEALTH_GROUP", "backoffice")

	// BO_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("BO_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BO_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// BO_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("BO_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BO_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для миграций и лейблов dephealth).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q", val)
	}
	return d, nil
}

// parseLogLevel разбирает уровень логирования.
func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("недопустимый уровень логирования %q, допустимые: debug, info, warn, error", level)
	}
}
