package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	API      APIConfig
	Backend  BackendConfig
	Checkout CheckoutConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

// Enabled reports whether attempt history is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Name != ""
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

type APIConfig struct {
	Key string
}

// BackendConfig points at the remote payment backend.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type CheckoutConfig struct {
	PollInterval        time.Duration
	CountdownSeconds    int
	CountryCode         string
	FullRedirectMediums []string
	SessionTTL          time.Duration
	ReceiptURL          string
	CatalogTTL          time.Duration
}

func setDefaults() {
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SOCIALPAY_API_URL", "https://api.socialpay.et")
	viper.SetDefault("SOCIALPAY_API_TIMEOUT", "30s")
	viper.SetDefault("CHECKOUT_POLL_INTERVAL", "3s")
	viper.SetDefault("CHECKOUT_REDIRECT_COUNTDOWN", 60)
	viper.SetDefault("CHECKOUT_COUNTRY_CODE", "+251")
	viper.SetDefault("CHECKOUT_FULL_REDIRECT_MEDIUMS", "ETHSWITCH")
	viper.SetDefault("CHECKOUT_SESSION_TTL", "30m")
	viper.SetDefault("CHECKOUT_RECEIPT_URL", "https://socialpay.et/receipt/%s")
	viper.SetDefault("CATALOG_CACHE_TTL", "5m")
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	setDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: loadDatabase(),
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Telegram: TelegramConfig{
			Token:  viper.GetString("TELEGRAM_BOT_TOKEN"),
			ChatID: viper.GetInt64("TELEGRAM_CHAT_ID"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(viper.GetString("SOCIALPAY_API_URL"), "/"),
			Timeout: duration("SOCIALPAY_API_TIMEOUT", 30*time.Second),
		},
		Checkout: CheckoutConfig{
			PollInterval:        duration("CHECKOUT_POLL_INTERVAL", 3*time.Second),
			CountdownSeconds:    viper.GetInt("CHECKOUT_REDIRECT_COUNTDOWN"),
			CountryCode:         viper.GetString("CHECKOUT_COUNTRY_CODE"),
			FullRedirectMediums: list(viper.GetString("CHECKOUT_FULL_REDIRECT_MEDIUMS")),
			SessionTTL:          duration("CHECKOUT_SESSION_TTL", 30*time.Minute),
			ReceiptURL:          viper.GetString("CHECKOUT_RECEIPT_URL"),
			CatalogTTL:          duration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
	}

	if !cfg.Database.Enabled() {
		log.Println("WARNING: DB_NAME is not set, checkout attempts will not be stored")
	}
	if cfg.Telegram.Token == "" {
		log.Println("WARNING: TELEGRAM_BOT_TOKEN is not set")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just the database settings, for schema bootstrap.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	setDefaults()

	db := loadDatabase()
	if !db.Enabled() {
		return nil, errDatabaseNotConfigured
	}
	return &db, nil
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func list(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
