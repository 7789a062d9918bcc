package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config структура конфигурации приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Stripe   StripeConfig
	Auth     AuthConfig
	App      AppConfig
	Logging  LoggingConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig конфигурация Redis (кеш обработанных сессий)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig конфигурация Kafka
type KafkaConfig struct {
	Brokers []string
}

// StripeConfig конфигурация платежного шлюза
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// AuthConfig конфигурация аутентификации
type AuthConfig struct {
	JWTSecret string
}

// AppConfig адреса самого сервиса и фронтенда.
// BaseURL используется для success callback платежных сессий,
// FrontendURL - конечная точка редиректов после подтверждения.
type AppConfig struct {
	BaseURL     string
	FrontendURL string
}

// LoggingConfig конфигурация логгера
type LoggingConfig struct {
	Level string
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load загружает конфигурацию из переменных окружения (один раз при старте).
func Load() (*Config, error) {
	// В dev-окружении подхватываем .env, в production полагаемся только на env
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetInt("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetInt("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("KAFKA_BROKERS"),
		},
		Stripe: StripeConfig{
			APIKey:        v.GetString("STRIPE_API_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		App: AppConfig{
			BaseURL:     v.GetString("APP_BASE_URL"),
			FrontendURL: v.GetString("APP_FRONTEND_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hayaat_payments")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("APP_FRONTEND_URL", "http://localhost:3000/subscription")
	v.SetDefault("LOG_LEVEL", "info")
}

// validate проверяет обязательные секреты: без них сервис работать не может.
func (c *Config) validate() error {
	if c.Stripe.APIKey == "" {
		return errors.New("config: STRIPE_API_KEY is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return errors.New("config: STRIPE_WEBHOOK_SECRET is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	return nil
}
