package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the pipeline settings. Priority: ENV > YAML > defaults.
type Config struct {
	APIKey  string `yaml:"api_key"  env:"CLASSIFIER_API_KEY"`
	BaseURL string `yaml:"base_url" env:"CLASSIFIER_BASE_URL" env-default:"https://api.deepseek.com"`
	Model   string `yaml:"model"    env:"CLASSIFIER_MODEL"    env-default:"deepseek-chat"`

	MaxConcurrency     int     `yaml:"max_concurrency"      env:"MAX_CONCURRENT_REQUESTS" env-default:"5"`
	MinIntervalSec     float64 `yaml:"min_request_interval" env:"MIN_REQUEST_INTERVAL"    env-default:"1.0"`
	MaxAttempts        int     `yaml:"max_attempts"         env:"MAX_ATTEMPTS"            env-default:"3"`
	BackoffBaseMs      int     `yaml:"backoff_base_ms"      env:"BACKOFF_BASE_MS"         env-default:"500"`
	BackoffCapMs       int     `yaml:"backoff_cap_ms"       env:"BACKOFF_CAP_MS"          env-default:"8000"`
	RequestTimeoutSec  int     `yaml:"request_timeout_sec"  env:"REQUEST_TIMEOUT_SEC"     env-default:"30"`
	AbortFailureRate   float64 `yaml:"abort_failure_rate"   env:"ABORT_FAILURE_RATE"      env-default:"0.5"`
	AbortOnAuthFailure bool    `yaml:"abort_on_auth"        env:"ABORT_ON_AUTH_FAILURE"   env-default:"true"`

	DataDir      string `yaml:"data_dir"       env:"DATA_DIR"       env-default:"data"`
	FeedbackFile string `yaml:"feedback_file"  env:"FEEDBACK_FILE"  env-default:"pws_chatbot_qa_feedbacks.csv"`
	MappedFile   string `yaml:"mapped_file"    env:"MAPPED_FILE"    env-default:"mapped_questions.csv"`
}

// Load reads configuration from a YAML file and environment variables.
// The file path comes from CONFIG_PATH (fallback "./config.yaml"); when the
// fallback file does not exist, ENV + defaults alone are used.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the pipeline must not start with.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CLASSIFIER_API_KEY is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("CLASSIFIER_BASE_URL is required")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.MinIntervalSec < 0 {
		return fmt.Errorf("min_request_interval must be >= 0, got %v", c.MinIntervalSec)
	}
	if c.AbortFailureRate < 0 || c.AbortFailureRate > 1 {
		return fmt.Errorf("abort_failure_rate must be within [0,1], got %v", c.AbortFailureRate)
	}
	return nil
}

func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalSec * float64(time.Second))
}

func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

func (c *Config) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapMs) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}
