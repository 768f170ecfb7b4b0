package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
}

type Storage struct {
	// memory | redis | postgres | sqlite
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"5m"`
}

type RedisConnect struct {
	Host     string        `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string        `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string        `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"REDIS_TTL" env:"REDIS_TTL" env-default:"0s"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"storefront.db"`
}

type Session struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" env:"SESSION_IDLE_TTL" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"1m"`
	WriteTimeout  time.Duration `yaml:"write_timeout" env:"SESSION_WRITE_TIMEOUT" env-default:"5s"`
}

type Catalog struct {
	// empty means the embedded seed catalog
	Path string `yaml:"path" env:"CATALOG_PATH" env-default:""`
}

type Shipping struct {
	OriginZip string        `yaml:"origin_zip" env:"SHIPPING_ORIGIN_ZIP" env-default:"01001-000"`
	BaseURL   string        `yaml:"base_url" env:"SHIPPING_BASE_URL" env-default:"https://ws.correios.com.br/calculador/CalcPrecoPrazo.asmx/CalcPrecoPrazo"`
	Timeout   time.Duration `yaml:"timeout" env:"SHIPPING_TIMEOUT" env-default:"8s"`
}

type Auth struct {
	// demo | local
	Mode string `yaml:"mode" env:"AUTH_MODE" env-default:"demo"`
}

// RateLimit bounds login attempts per account within WindowSize.
type RateLimit struct {
	MaxAttempts int64         `yaml:"max_attempts" env:"RATE_LIMIT_MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"window_size" env:"RATE_LIMIT_WINDOW_SIZE" env-default:"15m"`
}

type Security struct {
	JWTKey         string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	JWTExpiryHours int    `yaml:"JWT_EXPIRY_HOURS" env:"JWT_EXPIRY_HOURS" env-default:"24"`
}

type Stripe struct {
	APIKey   string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	Currency string `yaml:"STRIPE_CURRENCY" env:"STRIPE_CURRENCY" env-default:"brl"`
}

type SendGrid struct {
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"loja@example.com"`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Loja"`
}

type OTel struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"textile-storefront"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT" env-default:""`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTPServer   `yaml:"http_server"`
	Storage      Storage      `yaml:"storage"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	SQLite       SQLite       `yaml:"sqlite"`
	Session      Session      `yaml:"session"`
	Catalog      Catalog      `yaml:"catalog"`
	Shipping     Shipping     `yaml:"shipping"`
	Auth         Auth         `yaml:"auth"`
	RateLimit    RateLimit    `yaml:"rate_limit"`
	Security     Security     `yaml:"security"`
	Stripe       Stripe       `yaml:"stripe"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	OTel         OTel         `yaml:"otel"`
}

const defaultConfigPath = "./config/local.yaml"

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "path to the config file")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			configPath = defaultConfigPath
		}

	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg

}

func LoadConfigFromPath(configPath string) (*Config, error) {

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}
