// Package config предоставляет структуры и функции для загрузки конфигурации
// консоли и воркеров напоминаний из YAML-файла с переопределением через окружение.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string          `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string          `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string          `yaml:"migrations_path" env-default:"./migrations"`
	GRPCHealthAddress       string          `yaml:"grpc_health_address" env-default:":9090"`
	HTTPServer              HTTPServer      `yaml:"http_server"`
	Backend                 Backend         `yaml:"backend"`
	RedisConnection         RedisConnection `yaml:"redis_connection"`
	RabbitMQ                RabbitMQ        `yaml:"rabbitmq"`
	JWTToken                JWTToken        `yaml:"jwttoken"`
	Auth                    Auth            `yaml:"auth"`
	Dashboard               Dashboard       `yaml:"dashboard"`
	Registration            Registration    `yaml:"registration"`
	Reminder                Reminder        `yaml:"reminder"`
	SMTP                    SMTP            `yaml:"smtp"`
	Resend                  Resend          `yaml:"resend"`
}

// HTTPServer настройки HTTP-сервера консоли.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// CSRFKey 32-байтовый ключ gorilla/csrf. Пустой ключ отключает CSRF-защиту.
	CSRFKey        string   `yaml:"csrf_key" env:"CSRF_KEY"`
	TrustedOrigins []string `yaml:"trusted_origins"`
	RateLimit      float64  `yaml:"rate_limit" env-default:"10"`
	RateBurst      int      `yaml:"rate_burst" env-default:"20"`
}

// Backend настройки REST API спортзала.
type Backend struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-required:"true"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// RedisConnection настройки подключения к redis.
type RedisConnection struct {
	Addr        string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Timeout     time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ настройки брокера очереди напоминаний.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// JWTToken настройки токенов сессии консоли.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"12h"`
}

// Режимы аутентификации администратора.
const (
	AuthModeBackend = "backend"
	AuthModeLocal   = "local"
)

// Auth способ проверки логина администратора.
type Auth struct {
	Mode         string `yaml:"mode" env-default:"backend"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
}

// Dashboard настройки опроса backend'а и кеша снимка.
type Dashboard struct {
	PollInterval time.Duration `yaml:"poll_interval" env-default:"30s"`
	SnapshotTTL  time.Duration `yaml:"snapshot_ttl" env-default:"10m"`
	TopN         int           `yaml:"top_n" env-default:"5"`
}

// Registration настройки мастера регистрации.
type Registration struct {
	WizardTTL      time.Duration `yaml:"wizard_ttl" env-default:"1h"`
	MaxPictureSize int64         `yaml:"max_picture_size" env-default:"5242880"`
}

// Каналы доставки напоминаний.
const (
	ChannelBackend = "backend"
	ChannelSMTP    = "smtp"
	ChannelResend  = "resend"
)

// Reminder настройки планировщика и отправителя напоминаний.
type Reminder struct {
	Interval    time.Duration `yaml:"interval" env-default:"12h"`
	Channel     string        `yaml:"channel" env-default:"backend"`
	Concurrency int           `yaml:"concurrency" env-default:"10"`
	GymName     string        `yaml:"gym_name" env-default:"VipGym"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	Host string `yaml:"host" env:"SMTP_HOST"`
	Port string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
}

// Resend настройки Resend API.
type Resend struct {
	APIKey string `yaml:"api_key" env:"RESEND_API_KEY"`
	From   string `yaml:"from" env:"RESEND_FROM"`
}

// Load читает конфиг по указанному пути.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг из файла, указанного в CONFIG_PATH, и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer: %s (timeout %s, idle %s)\n"+
			"Backend: %s (timeout %s)\n"+
			"Redis: %s db=%d\n"+
			"RabbitMQ: %t\n"+
			"Auth: %s\n"+
			"Dashboard: poll=%s ttl=%s top=%d\n"+
			"Reminder: interval=%s channel=%s\n",
		c.Env,
		c.HTTPServer.AddressHTTP, c.HTTPServer.TimeoutHTTP, c.HTTPServer.IdleTimeout,
		c.Backend.BaseURL, c.Backend.Timeout,
		c.RedisConnection.Addr, c.RedisConnection.DB,
		c.RabbitMQ.URL != "",
		c.Auth.Mode,
		c.Dashboard.PollInterval, c.Dashboard.SnapshotTTL, c.Dashboard.TopN,
		c.Reminder.Interval, c.Reminder.Channel,
	)
}
