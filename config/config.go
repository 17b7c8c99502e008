// Package config loads the service settings from the environment and an
// optional lextutor.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ExtractorModeProcess   = "process"
	ExtractorModeInProcess = "inprocess"
)

var (
	ErrMissingAPIKey        = errors.New("GEMINI_API_KEY is required")
	ErrInvalidBackend       = errors.New("invalid llm backend")
	ErrInvalidExtractorMode = errors.New("invalid extractor mode")
	ErrInvalidStorageType   = errors.New("invalid storage type")
)

// Config is the complete service configuration
type Config struct {
	Port           string   `mapstructure:"port"`
	GeminiAPIKey   string   `mapstructure:"gemini_api_key"`
	DatabaseURL    string   `mapstructure:"database_url"`
	LawCodesFile   string   `mapstructure:"law_codes_file"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	LLM           LLMConfig           `mapstructure:"llm"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Statute       StatuteConfig       `mapstructure:"statute"`
	Jurisprudence JurisprudenceConfig `mapstructure:"jurisprudence"`
	Extractor     ExtractorConfig     `mapstructure:"extractor"`
	Browser       BrowserConfig       `mapstructure:"browser"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Log           LogConfig           `mapstructure:"log"`
}

type LLMConfig struct {
	Backend     string  `mapstructure:"backend"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
}

type AnalysisConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

type StatuteConfig struct {
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	CacheSize   int           `mapstructure:"cache_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type JurisprudenceConfig struct {
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	Scrolls     int           `mapstructure:"scrolls"`
	ScrollDelay time.Duration `mapstructure:"scroll_delay"`
	MaxResults  int           `mapstructure:"max_results"`
}

// ExtractorConfig selects where browser work runs: in short-lived worker
// processes or inside the server.
type ExtractorConfig struct {
	Mode     string        `mapstructure:"mode"`
	Bin      string        `mapstructure:"bin"`
	MaxProcs int           `mapstructure:"max_procs"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type BrowserConfig struct {
	Headless bool   `mapstructure:"headless"`
	Bin      string `mapstructure:"bin"`
}

type StorageConfig struct {
	Type         string `mapstructure:"type"`
	LocalPath    string `mapstructure:"local_path"`
	S3Bucket     string `mapstructure:"s3_bucket"`
	S3Region     string `mapstructure:"s3_region"`
	S3Prefix     string `mapstructure:"s3_prefix"`
	AWSAccessKey string `mapstructure:"aws_access_key"`
	AWSSecretKey string `mapstructure:"aws_secret_key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("database_url", "")
	v.SetDefault("law_codes_file", "")
	v.SetDefault("allowed_origins", []string{})

	v.SetDefault("llm.backend", "generative-ai")
	v.SetDefault("llm.model", "gemini-2.5-pro")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 4000)

	v.SetDefault("analysis.max_attempts", 3)
	v.SetDefault("analysis.base_delay", 4*time.Second)
	v.SetDefault("analysis.max_delay", 10*time.Second)

	v.SetDefault("statute.max_retries", 3)
	v.SetDefault("statute.retry_delay", 5*time.Second)
	v.SetDefault("statute.min_interval", time.Second)
	v.SetDefault("statute.cache_size", 100)
	v.SetDefault("statute.timeout", 30*time.Second)

	v.SetDefault("jurisprudence.max_retries", 3)
	v.SetDefault("jurisprudence.retry_delay", 5*time.Second)
	v.SetDefault("jurisprudence.wait_timeout", 60*time.Second)
	v.SetDefault("jurisprudence.scrolls", 3)
	v.SetDefault("jurisprudence.scroll_delay", 2*time.Second)
	v.SetDefault("jurisprudence.max_results", 20)

	v.SetDefault("extractor.mode", ExtractorModeProcess)
	v.SetDefault("extractor.bin", "lextutor-extractor")
	v.SetDefault("extractor.max_procs", 4)
	v.SetDefault("extractor.timeout", 5*time.Minute)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./artifacts")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "eu-central-2")
	v.SetDefault("storage.s3_prefix", "")
	v.SetDefault("storage.aws_access_key", "")
	v.SetDefault("storage.aws_secret_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads the configuration. An explicit file must exist; otherwise
// lextutor.yaml is looked up in the working directory and in
// $HOME/.config/lextutor, and its absence is not an error. Environment
// variables override both (llm.model is LLM_MODEL).
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Names used by existing deployments.
	_ = v.BindEnv("storage.s3_bucket", "STORAGE_S3_BUCKET", "AWS_S3_BUCKET")
	_ = v.BindEnv("storage.s3_region", "STORAGE_S3_REGION", "AWS_REGION")
	_ = v.BindEnv("storage.aws_access_key", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("storage.aws_secret_key", "AWS_SECRET_ACCESS_KEY")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("lextutor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lextutor"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.LLM.Backend {
	case "generative-ai", "genai", "rest":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.LLM.Backend)
	}
	return c.ValidateExtraction()
}

// ValidateExtraction checks the settings the worker binary depends on. It
// does not need model credentials.
func (c *Config) ValidateExtraction() error {
	switch c.Extractor.Mode {
	case ExtractorModeProcess, ExtractorModeInProcess:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidExtractorMode, c.Extractor.Mode)
	}
	switch c.Storage.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorageType, c.Storage.Type)
	}
	return nil
}
