package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DatabaseConfig хранит конфигурацию подключения к PostgreSQL
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	ConnTimeout int // секунды
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ
type RabbitMQConfig struct {
	URL     string
	Enabled bool
}

type RESTconfig struct {
	PORT string
}

type StdoutLogConfig struct {
	Level string // По умолчанию DEBUG
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string // По умолчанию INFO
}

type TelegramConfig struct {
	Token  string
	ChatID string
}

// ScrapeConfig - расписание обхода и критерии предварительной фильтрации.
type ScrapeConfig struct {
	Schedule      string
	Sites         []string
	MinPrice      int64
	MaxPrice      int64
	MinArea       int
	Cities        []string
	PropertyTypes []string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	StoreDriver  string // "postgres" или "memory"
	Database     DatabaseConfig
	RabbitMQ     RabbitMQConfig
	Rest         RESTconfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	Telegram     TelegramConfig
	Scrape       ScrapeConfig
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "huizenzoeker")

	cfg.StoreDriver = getEnvAsString("STORE_DRIVER", "postgres")
	if cfg.StoreDriver != "postgres" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("STORE_DRIVER must be 'postgres' or 'memory', got '%s'", cfg.StoreDriver)
	}

	if cfg.StoreDriver == "postgres" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required")
		}
		cfg.Database.MaxConns = getEnvAsInt("DATABASE_MAX_CONNS", 10)
		cfg.Database.ConnTimeout = getEnvAsInt("DATABASE_CONN_TIMEOUT_SEC", 10)
	}

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", true)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required")
		}
	}

	cfg.Rest.PORT = getEnvAsString("PORT", "8080")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")

	cfg.Scrape.Schedule = getEnvAsString("SCRAPE_SCHEDULE", "0 * * * *")
	cfg.Scrape.Sites = getEnvAsList("SCRAPE_SITES", nil)
	cfg.Scrape.MinPrice = int64(getEnvAsInt("FILTER_MIN_PRICE", 0))
	cfg.Scrape.MaxPrice = int64(getEnvAsInt("FILTER_MAX_PRICE", 0))
	cfg.Scrape.MinArea = getEnvAsInt("FILTER_MIN_AREA", 0)
	cfg.Scrape.Cities = getEnvAsList("FILTER_CITIES", nil)
	cfg.Scrape.PropertyTypes = getEnvAsList("FILTER_PROPERTY_TYPES", nil)

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsList читает переменную окружения как список значений через запятую
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists || valStr == "" {
		return defaultValue
	}
	parts := strings.Split(valStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
