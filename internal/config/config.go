// Package config loads the assistant configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant services.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	LLM      LLMConfig      `yaml:"llm"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Accounts AccountsConfig `yaml:"accounts"`
	// LexiconPath replaces the embedded lexicon when set.
	LexiconPath string `yaml:"lexicon_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	// TrashTTL is how long a deleted conversation can be restored.
	TrashTTL time.Duration `yaml:"trash_ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the conversation log backend: memory or mysql.
type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DSN returns the go-sql-driver/mysql connection string.
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local",
		m.User, m.Password, m.Host, m.Port, m.Database)
}

// RedisConfig holds Redis settings. Addr empty disables Redis-backed features.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig holds broker and topic settings. Brokers empty disables Kafka.
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	GroupID      string   `yaml:"group_id"`
	QueriesTopic string   `yaml:"queries_topic"`
	RepliesTopic string   `yaml:"replies_topic"`
	TurnsTopic   string   `yaml:"turns_topic"`
	MissesTopic  string   `yaml:"misses_topic"`
	Workers      int      `yaml:"workers"`
}

// LLMConfig holds completion service settings. APIKey empty disables it.
type LLMConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
}

// CatalogConfig selects the catalog source: jsonl or mysql.
type CatalogConfig struct {
	Source         string `yaml:"source"`
	ProductsPath   string `yaml:"products_path"`
	CategoriesPath string `yaml:"categories_path"`
	// Refresh bounds how stale a MySQL-backed snapshot may get.
	Refresh time.Duration `yaml:"refresh"`
}

// AccountsConfig selects the account backend: redis or static.
type AccountsConfig struct {
	Driver string `yaml:"driver"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// An empty path starts from DefaultConfig.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a configuration that runs without external services.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             ":8080",
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			GracefulShutdown: 10 * time.Second,
			TrashTTL:         15 * time.Second,
		},
		Log:   LogConfig{Level: "info", Format: "json"},
		Store: StoreConfig{Driver: "memory"},
		MySQL: MySQLConfig{Host: "localhost", Port: "3306", User: "root", Database: "storefront"},
		Kafka: KafkaConfig{
			GroupID:      "assistant-group",
			QueriesTopic: "assistant.queries",
			RepliesTopic: "assistant.replies",
			TurnsTopic:   "assistant.turns",
			MissesTopic:  "catalog.misses",
			Workers:      8,
		},
		LLM: LLMConfig{
			Endpoint:  "https://router.huggingface.co/v1/chat/completions",
			Model:     "meta-llama/Llama-3.1-8B-Instruct",
			Timeout:   15 * time.Second,
			RateLimit: 5,
			Burst:     5,
		},
		Catalog: CatalogConfig{
			Source:         "jsonl",
			ProductsPath:   "data/products.jsonl",
			CategoriesPath: "data/categories.jsonl",
			Refresh:        30 * time.Second,
		},
		Accounts: AccountsConfig{Driver: "static"},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Server.TrashTTL <= 0 {
		return fmt.Errorf("trash_ttl must be positive")
	}
	switch c.Store.Driver {
	case "memory", "mysql":
	default:
		return fmt.Errorf("invalid store driver: %s", c.Store.Driver)
	}
	switch c.Catalog.Source {
	case "jsonl":
		if c.Catalog.ProductsPath == "" {
			return fmt.Errorf("catalog products_path is required for jsonl source")
		}
	case "mysql":
	default:
		return fmt.Errorf("invalid catalog source: %s", c.Catalog.Source)
	}
	switch c.Accounts.Driver {
	case "static":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis accounts")
		}
	default:
		return fmt.Errorf("invalid accounts driver: %s", c.Accounts.Driver)
	}
	if c.Kafka.Workers < 1 {
		return fmt.Errorf("kafka workers must be at least 1")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}
	return nil
}

// NeedsMySQL reports whether any component reads from MySQL.
func (c *Config) NeedsMySQL() bool {
	return c.Store.Driver == "mysql" || c.Catalog.Source == "mysql"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	cfg.Server.Addr = getenv("ASSISTANT_HTTP_ADDR", cfg.Server.Addr)
	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("LOG_FORMAT", cfg.Log.Format)
	cfg.Store.Driver = getenv("STORE_DRIVER", cfg.Store.Driver)
	cfg.LexiconPath = getenv("LEXICON_PATH", cfg.LexiconPath)

	cfg.MySQL.Host = getenv("DB_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = getenv("DB_PORT", cfg.MySQL.Port)
	cfg.MySQL.User = getenv("DB_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getenv("DB_PASS", cfg.MySQL.Password)
	cfg.MySQL.Database = getenv("DB_NAME", cfg.MySQL.Database)

	cfg.Redis.Addr = getenv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenv("REDIS_PASSWORD", cfg.Redis.Password)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	} else if v := os.Getenv("KAFKA_BROKER"); v != "" {
		cfg.Kafka.Brokers = []string{v}
	}
	cfg.Kafka.GroupID = getenv("KAFKA_GROUP_ID", cfg.Kafka.GroupID)
	if v := os.Getenv("KAFKA_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Kafka.Workers = n
		}
	}

	cfg.LLM.Endpoint = getenv("HF_ENDPOINT", cfg.LLM.Endpoint)
	cfg.LLM.APIKey = getenv("HF_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getenv("HF_MODEL", cfg.LLM.Model)
	if v := os.Getenv("HF_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}

	cfg.Catalog.Source = getenv("CATALOG_SOURCE", cfg.Catalog.Source)
	cfg.Catalog.ProductsPath = getenv("CATALOG_PRODUCTS", cfg.Catalog.ProductsPath)
	cfg.Catalog.CategoriesPath = getenv("CATALOG_CATEGORIES", cfg.Catalog.CategoriesPath)
	cfg.Accounts.Driver = getenv("ACCOUNTS_DRIVER", cfg.Accounts.Driver)
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
