package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string   `yaml:"port"`
	GinMode     string   `yaml:"gin_mode"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`
	Seed        bool     `yaml:"seed"`

	DB       Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Payment  Payment  `yaml:"payment"`
	Realtime Realtime `yaml:"realtime"`
	Loyalty  Loyalty  `yaml:"loyalty"`
	Jobs     Jobs     `yaml:"jobs"`
	WhatsApp WhatsApp `yaml:"whatsapp"`

	ReceiptDir string `yaml:"receipt_dir"`
}

type Database struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	MaxOpen  int    `yaml:"max_open"`
	MaxIdle  int    `yaml:"max_idle"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Payment struct {
	GCashSecret   string `yaml:"gcash_secret"`
	PayMayaSecret string `yaml:"paymaya_secret"`
	BaseURL       string `yaml:"base_url"`
}

type Realtime struct {
	RedisAddr    string   `yaml:"redis_addr"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

type Loyalty struct {
	// PointsPerUnit is the amount of currency that earns one point.
	PointsPerUnit float64 `yaml:"points_per_unit"`
	WelcomeBonus  int     `yaml:"welcome_bonus"`
}

type Jobs struct {
	OrderRetention   time.Duration `yaml:"order_retention"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
	LowStockInterval time.Duration `yaml:"low_stock_interval"`
}

type WhatsApp struct {
	Token      string `yaml:"token"`
	AdminPhone string `yaml:"admin_phone"`
}

func Default() *Config {
	return &Config{
		Port:        "8080",
		GinMode:     "release",
		LogLevel:    "info",
		CORSOrigins: []string{"http://localhost:3000"},
		DB: Database{
			Driver:  "mysql",
			Host:    "localhost",
			Port:    "3306",
			User:    "root",
			Name:    "kd_resto",
			MaxOpen: 25,
			MaxIdle: 5,
		},
		Auth:     Auth{TokenTTL: 12 * time.Hour},
		Payment:  Payment{BaseURL: "http://localhost:8080"},
		Realtime: Realtime{KafkaTopic: "restaurant-events"},
		Loyalty:  Loyalty{PointsPerUnit: 10},
		Jobs: Jobs{
			OrderRetention:   30 * 24 * time.Hour,
			CleanupInterval:  time.Hour,
			LowStockInterval: 5 * time.Minute,
		},
		ReceiptDir: "uploads/receipts",
	}
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then the
// process environment. Later sources win.
func Load(log *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded", "error", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.CORSOrigins = getList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.ReceiptDir = getEnv("RECEIPT_DIR", cfg.ReceiptDir)

	cfg.DB.Driver = getEnv("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = getEnv("DB_DSN", cfg.DB.DSN)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASS", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Payment.GCashSecret = getEnv("GCASH_SECRET", cfg.Payment.GCashSecret)
	cfg.Payment.PayMayaSecret = getEnv("PAYMAYA_SECRET", cfg.Payment.PayMayaSecret)
	cfg.Payment.BaseURL = getEnv("PAYMENT_BASE_URL", cfg.Payment.BaseURL)

	cfg.Realtime.RedisAddr = getEnv("REDIS_ADDR", cfg.Realtime.RedisAddr)
	cfg.Realtime.KafkaBrokers = getList("KAFKA_BROKERS", cfg.Realtime.KafkaBrokers)
	cfg.Realtime.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.Realtime.KafkaTopic)

	cfg.WhatsApp.Token = getEnv("FONNTE_TOKEN", cfg.WhatsApp.Token)
	cfg.WhatsApp.AdminPhone = getEnv("ADMIN_PHONE", cfg.WhatsApp.AdminPhone)

	var err error
	if cfg.Seed, err = getBool("SEED", cfg.Seed); err != nil {
		return err
	}
	if cfg.DB.MaxOpen, err = getInt("DB_MAX_OPEN", cfg.DB.MaxOpen); err != nil {
		return err
	}
	if cfg.DB.MaxIdle, err = getInt("DB_MAX_IDLE", cfg.DB.MaxIdle); err != nil {
		return err
	}
	if cfg.Loyalty.WelcomeBonus, err = getInt("LOYALTY_WELCOME_BONUS", cfg.Loyalty.WelcomeBonus); err != nil {
		return err
	}
	if v := os.Getenv("LOYALTY_POINTS_PER_UNIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid LOYALTY_POINTS_PER_UNIT %q", v)
		}
		cfg.Loyalty.PointsPerUnit = f
	}
	if cfg.Auth.TokenTTL, err = getDuration("JWT_TTL", cfg.Auth.TokenTTL); err != nil {
		return err
	}
	if cfg.Jobs.OrderRetention, err = getDuration("ORDER_RETENTION", cfg.Jobs.OrderRetention); err != nil {
		return err
	}
	if cfg.Jobs.CleanupInterval, err = getDuration("CLEANUP_INTERVAL", cfg.Jobs.CleanupInterval); err != nil {
		return err
	}
	if cfg.Jobs.LowStockInterval, err = getDuration("LOW_STOCK_INTERVAL", cfg.Jobs.LowStockInterval); err != nil {
		return err
	}
	if cfg.Jobs.CleanupInterval <= 0 || cfg.Jobs.LowStockInterval <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	return nil
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getList(k string, d []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return n, nil
}

func getBool(k string, d bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return b, nil
}

func getDuration(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return dur, nil
}
