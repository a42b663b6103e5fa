package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Groq      GroqConfig      `mapstructure:"groq"`
	Generator GeneratorConfig `mapstructure:"generator"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Session   SessionConfig   `mapstructure:"session"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Client    ClientConfig    `mapstructure:"client"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type GroqConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type GeneratorConfig struct {
	SectionWordLimit int `mapstructure:"section_word_limit"`
	DefaultWordCount int `mapstructure:"default_word_count"`
	ReferenceCount   int `mapstructure:"reference_count"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type StorageConfig struct {
	Type    string `mapstructure:"type"`
	DataDir string `mapstructure:"data_dir"`
}

type PathsConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
	OutputDir string `mapstructure:"output_dir"`
}

type ClientConfig struct {
	BaseURL     string         `mapstructure:"base_url"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	DownloadDir string         `mapstructure:"download_dir"`
	Seasonal    SeasonalConfig `mapstructure:"seasonal"`
}

// SeasonalConfig drives the once-per-run seasonal banner. Dates are
// month-day ("12-20") and the range may wrap the new year.
type SeasonalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Message   string `mapstructure:"message"`
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SCRIBO")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Config file wins; fall back to the conventional env var for the key.
	if cfg.Groq.APIKey == "" {
		if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
			cfg.Groq.APIKey = apiKey
		}
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Groq.Model == "" {
		c.Groq.Model = "llama-3.3-70b-versatile"
	}
	if c.Groq.MaxTokens == 0 {
		c.Groq.MaxTokens = 2000
	}
	if c.Generator.SectionWordLimit == 0 {
		c.Generator.SectionWordLimit = 110
	}
	if c.Generator.DefaultWordCount == 0 {
		c.Generator.DefaultWordCount = 3000
	}
	if c.Generator.ReferenceCount == 0 {
		c.Generator.ReferenceCount = 8
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Session.CleanupInterval == 0 {
		c.Session.CleanupInterval = time.Hour
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Paths.UploadDir == "" {
		c.Paths.UploadDir = "uploads"
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "outputs"
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 5 * time.Minute
	}
	if c.Client.DownloadDir == "" {
		c.Client.DownloadDir = "."
	}
}

func Get() *Config {
	return cfg
}
