package config

import (
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the content engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration (health and job status endpoints only)
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3480"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	LLM       LLMConfig       `yaml:"llm"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Content   ContentConfig   `yaml:"content"`
	Rewrite   RewriteConfig   `yaml:"rewrite"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_content"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis configuration. Redis backs the job scheduler
// and the last-run job status store.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Addr returns host:port for the Redis server.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LLMConfig selects and configures the model used by the content generator.
type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint    string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model       string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey      string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.7"`
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`
}

// SchedulerConfig holds the trigger schedule. All cron specs are evaluated in Timezone.
type SchedulerConfig struct {
	Timezone        string `yaml:"timezone" env:"SCHEDULER_TIMEZONE" env-default:"Asia/Tokyo"`
	GenerateCron    string `yaml:"generate_cron" env:"SCHEDULER_GENERATE_CRON" env-default:"0 12 * * *"`
	AnalyzeCron     string `yaml:"analyze_cron" env:"SCHEDULER_ANALYZE_CRON" env-default:"0 20 * * *"`
	RewriteCron     string `yaml:"rewrite_cron" env:"SCHEDULER_REWRITE_CRON" env-default:"0 23 * * *"`
	JobTimeoutMin   int    `yaml:"job_timeout_minutes" env:"SCHEDULER_JOB_TIMEOUT_MINUTES" env-default:"30"`
	Concurrency     int    `yaml:"concurrency" env:"SCHEDULER_CONCURRENCY" env-default:"1"`
	GenerateWorkers int    `yaml:"generate_workers" env:"SCHEDULER_GENERATE_WORKERS" env-default:"4"`
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
func (c *SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid scheduler timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// JobTimeout returns the per-invocation timeout handed to the task server.
func (c *SchedulerConfig) JobTimeout() time.Duration {
	if c.JobTimeoutMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.JobTimeoutMin) * time.Minute
}

// ContentConfig holds generation and retention settings.
type ContentConfig struct {
	DedupWindowDays int    `yaml:"dedup_window_days" env:"CONTENT_DEDUP_WINDOW_DAYS" env-default:"7"`
	HistoryCap      int    `yaml:"history_cap" env:"CONTENT_HISTORY_CAP" env-default:"50"`
	SitesDir        string `yaml:"sites_dir" env:"CONTENT_SITES_DIR" env-default:"sites"`
	TemplatesDir    string `yaml:"templates_dir" env:"CONTENT_TEMPLATES_DIR" env-default:"templates"`
	DefaultTemplate string `yaml:"default_template" env:"CONTENT_DEFAULT_TEMPLATE" env-default:"blogTemplate_offer.txt"`
}

// DedupWindow returns the dedup window as a duration.
func (c *ContentConfig) DedupWindow() time.Duration {
	days := c.DedupWindowDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// RewriteConfig holds the weakness thresholds and the fixed generation
// inputs used by the nightly rewrite job.
type RewriteConfig struct {
	MinViews    int64   `yaml:"min_views" env:"REWRITE_MIN_VIEWS" env-default:"20"`
	MaxCTR      float64 `yaml:"max_ctr" env:"REWRITE_MAX_CTR" env-default:"0.02"`
	MinAvgTime  float64 `yaml:"min_avg_time_sec" env:"REWRITE_MIN_AVG" env-default:"30"`
	MinScore    float64 `yaml:"min_score" env:"REWRITE_MIN_SCORE" env-default:"65"`
	WindowDays  int     `yaml:"window_days" env:"REWRITE_WINDOW_DAYS" env-default:"7"`
	ScanLimit   int     `yaml:"scan_limit" env:"REWRITE_SCAN_LIMIT" env-default:"200"`
	SiteName    string  `yaml:"site_name" env:"REWRITE_SITE_NAME" env-default:"Kariraku（カリラク）"`
	Persona     string  `yaml:"persona" env:"REWRITE_PERSONA" env-default:"家電を借りるか迷っている人"`
	Pain        string  `yaml:"pain" env:"REWRITE_PAIN" env-default:"料金比較・設置/回収・短期だけ使いたい"`
	Template    string  `yaml:"template" env:"REWRITE_TEMPLATE" env-default:"blogTemplate_kariraku_service.txt"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Database.Host = ResolveHostForDocker(cfg.Database.Host)
	cfg.Redis.Host = ResolveHostForDocker(cfg.Redis.Host)

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	if c.Rewrite.MaxCTR < 0 || c.Rewrite.MaxCTR > 1 {
		return fmt.Errorf("rewrite.max_ctr must be between 0 and 1, got %v", c.Rewrite.MaxCTR)
	}
	// articles.analysis_history carries a CHECK constraint at 50 entries
	if c.Content.HistoryCap < 0 || c.Content.HistoryCap > 50 {
		return fmt.Errorf("content.history_cap must be between 0 and 50, got %d", c.Content.HistoryCap)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. The result is cached.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps localhost to host.docker.internal when running in a container,
// so a containerized worker can reach Postgres and Redis on the host.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
