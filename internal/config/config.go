package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Env          string        `yaml:"env"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	RateLimit struct {
		Store     string        `yaml:"store"` // memory, database
		Window    time.Duration `yaml:"window"`
		Votes     int           `yaml:"votes"`
		Answers   int           `yaml:"answers"`
		Questions int           `yaml:"questions"`
		Comments  int           `yaml:"comments"`
	} `yaml:"rate_limit"`

	Notifications struct {
		TTL           time.Duration `yaml:"ttl"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
		EmailTypes    []string      `yaml:"email_types"`
	} `yaml:"notifications"`

	WebSocket struct {
		SendBuffer     int           `yaml:"send_buffer"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"websocket"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		QueueSize    int    `yaml:"queue_size"`
		TemplatesDir string `yaml:"templates_dir"`
		BaseURL      string `yaml:"base_url"`
	} `yaml:"email"`
}

var AppConfig *Config

// LoadConfig читает .env (если есть), затем config.yaml, затем переопределения из окружения.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && os.Getenv("CONFIG_PATH") == "":
		// Нет файла по умолчанию - работаем на дефолтах и переменных окружения
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	applyEnv(cfg)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required (JWT_SECRET or jwt.secret)")
	}

	AppConfig = cfg
	return cfg, nil
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	var cfg Config

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 4000
	cfg.Server.Env = "development"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Second

	cfg.Database.Driver = "postgres"

	cfg.JWT.TTL = 60 * 24

	cfg.RateLimit.Store = "memory"
	cfg.RateLimit.Window = time.Minute
	cfg.RateLimit.Votes = 10
	cfg.RateLimit.Answers = 5
	cfg.RateLimit.Questions = 5
	cfg.RateLimit.Comments = 10

	cfg.Notifications.TTL = 30 * 24 * time.Hour
	cfg.Notifications.SweepInterval = time.Hour
	cfg.Notifications.EmailTypes = []string{"accept", "mention"}

	cfg.WebSocket.SendBuffer = 64
	cfg.WebSocket.PingInterval = 30 * time.Second

	cfg.Email.SMTPPort = 587
	cfg.Email.FromName = "QA Forum"
	cfg.Email.QueueSize = 256
	cfg.Email.BaseURL = "http://localhost:3000"

	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("RATE_LIMIT_STORE"); v != "" {
		cfg.RateLimit.Store = v
	}
	if v := os.Getenv("TEMPLATES_DIR"); v != "" {
		cfg.Email.TemplatesDir = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		cfg, err := LoadConfig()
		if err != nil {
			panic(err)
		}
		return cfg
	}
	return AppConfig
}
