package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mock      bool            `yaml:"mock"`
	Frontend  string          `yaml:"frontend"`
	HTTP      HTTPConfig      `yaml:"http"`
	Interview InterviewConfig `yaml:"interview"`
	LLM       LLMConfig       `yaml:"llm"`
	STT       STTConfig       `yaml:"stt"`
	Retry     RetryConfig     `yaml:"retry"`
	Capture   CaptureConfig   `yaml:"capture"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// RateLimit is the number of audio uploads allowed per client per minute.
	RateLimit int `yaml:"rate_limit"`
}

type InterviewConfig struct {
	QuestionCount  int           `yaml:"question_count"`
	AudioDir       string        `yaml:"audio_dir"`
	ResultsFile    string        `yaml:"results_file"`
	// ArchiveDB enables the SQLite answer archive and the /history page.
	ArchiveDB      string        `yaml:"archive_db"`
	ServiceTimeout time.Duration `yaml:"service_timeout"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type STTConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	BaseURL  string `yaml:"base_url"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

type CaptureConfig struct {
	Source     string        `yaml:"source"`
	FileDir    string        `yaml:"file_dir"`
	HTTPAddr   string        `yaml:"http_addr"`
	AuthToken  string        `yaml:"auth_token"`
	SampleRate int           `yaml:"sample_rate"`
	MaxLength  time.Duration `yaml:"max_length"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references from the environment and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Frontend == "" {
		c.Frontend = "web"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 30
	}
	if c.Interview.QuestionCount == 0 {
		c.Interview.QuestionCount = 5
	}
	if c.Interview.AudioDir == "" {
		c.Interview.AudioDir = "./recordings"
	}
	if c.Interview.ResultsFile == "" {
		c.Interview.ResultsFile = "./interview_results.csv"
	}
	if c.Interview.ServiceTimeout == 0 {
		c.Interview.ServiceTimeout = 60 * time.Second
	}
	if c.Interview.SessionTTL == 0 {
		c.Interview.SessionTTL = 2 * time.Hour
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "groq"
	}
	if c.STT.Provider == "" {
		c.STT.Provider = "groq"
	}
	if c.STT.Language == "" {
		c.STT.Language = "en"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = 500 * time.Millisecond
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 5 * time.Second
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2
	}
	if c.Capture.Source == "" {
		c.Capture.Source = "file"
	}
	if c.Capture.FileDir == "" {
		c.Capture.FileDir = "./answers"
	}
	if c.Capture.HTTPAddr == "" {
		c.Capture.HTTPAddr = ":8081"
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = 16000
	}
	if c.Capture.MaxLength == 0 {
		c.Capture.MaxLength = 2 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks the settings the selected mode needs. API keys are only
// required when hosted services are used.
func (c *Config) Validate() error {
	var errs []error

	switch c.Frontend {
	case "web", "console":
	default:
		errs = append(errs, fmt.Errorf("frontend: unknown value %q", c.Frontend))
	}

	switch c.Capture.Source {
	case "file", "http", "microphone":
	default:
		errs = append(errs, fmt.Errorf("capture.source: unknown value %q", c.Capture.Source))
	}

	if c.Interview.QuestionCount < 1 {
		errs = append(errs, errors.New("interview.question_count must be at least 1"))
	}
	if c.Interview.ServiceTimeout < 0 {
		errs = append(errs, errors.New("interview.service_timeout must not be negative"))
	}

	if !c.Mock {
		switch c.LLM.Provider {
		case "groq", "openai", "anthropic", "gemini":
		default:
			errs = append(errs, fmt.Errorf("llm.provider: unknown value %q", c.LLM.Provider))
		}
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			errs = append(errs, errors.New("llm.api_key is required unless mock mode is on"))
		}

		switch c.STT.Provider {
		case "groq", "openai":
		default:
			errs = append(errs, fmt.Errorf("stt.provider: unknown value %q", c.STT.Provider))
		}
		if strings.TrimSpace(c.STT.APIKey) == "" {
			errs = append(errs, errors.New("stt.api_key is required unless mock mode is on"))
		}
	}

	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, errors.New("pushover.token and pushover.user_key are required when pushover is enabled"))
	}

	return errors.Join(errs...)
}
