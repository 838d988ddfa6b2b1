// Package config provides configuration management with CLI > env > file precedence.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/tnglemongrass/gochat/internal/llm"
	"gopkg.in/yaml.v3"
)

// OfficialEndpoint is the OpenAI chat completions endpoint. It is the only
// endpoint that refuses requests without an API key.
const OfficialEndpoint = "https://api.openai.com/v1/chat/completions"

// Config holds all configuration options for gochat.
type Config struct {
	Endpoint         string            `yaml:"endpoint"`
	APIKey           string            `yaml:"api-key"`
	Headers          map[string]string `yaml:"headers"`
	Model            string            `yaml:"model"`
	TitleModel       string            `yaml:"title-model"`
	MaxTokens        int               `yaml:"max-tokens"`
	Temperature      float64           `yaml:"temperature"`
	PresencePenalty  float64           `yaml:"presence-penalty"`
	TopP             float64           `yaml:"top-p"`
	FrequencyPenalty float64           `yaml:"frequency-penalty"`
	AutoTitle        bool              `yaml:"auto-title"`
	CountTotalTokens bool              `yaml:"count-total-tokens"`
	Language         string            `yaml:"language"`
	BridgePrefix     string            `yaml:"bridge-prefix"`
	ModelsFile       string            `yaml:"models-file"`
	ModelsURL        string            `yaml:"models-url"`
	Persona          string            `yaml:"persona"`
	Debug            bool              `yaml:"debug"`
	PrettyLog        bool              `yaml:"pretty-log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:     OfficialEndpoint,
		Model:        "gpt-4o-mini",
		MaxTokens:    4000,
		Temperature:  1,
		TopP:         1,
		Language:     "en",
		BridgePrefix: llm.DefaultBridgePrefix,
	}
}

// Load builds a Config by merging CLI flags, environment variables, and config files.
// Precedence: CLI args > env vars > config files (cwd then $HOME).
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	// Load config files (lowest precedence first, then overwrite).
	if home, err := os.UserHomeDir(); err == nil {
		_ = cfg.loadYAML(filepath.Join(home, ".gochat.conf.yml"))
	}
	_ = cfg.loadYAML(".gochat.conf.yml")

	// Load .env files.
	_ = godotenv.Load()

	// Apply env vars.
	cfg.applyEnv()

	// Parse CLI flags (highest precedence).
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("GOCHAT_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("GOCHAT_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("GOCHAT_TITLE_MODEL"); v != "" {
		c.TitleModel = v
	}
	if v := os.Getenv("GOCHAT_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := os.Getenv("GOCHAT_MODELS_URL"); v != "" {
		c.ModelsURL = v
	}
	if v := os.Getenv("GOCHAT_PERSONA"); v != "" {
		c.Persona = v
	}
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("gochat", flag.ContinueOnError)
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "Chat completions endpoint")
	fs.StringVar(&c.APIKey, "api-key", c.APIKey, "API key")
	fs.StringToStringVar(&c.Headers, "header", c.Headers, "Extra request header (key=value, repeatable)")
	fs.StringVarP(&c.Model, "model", "m", c.Model, "Model name to use")
	fs.StringVar(&c.TitleModel, "title-model", c.TitleModel, "Model used for chat titles (default: chat model)")
	fs.IntVar(&c.MaxTokens, "max-tokens", c.MaxTokens, "Token budget for the chat history")
	fs.Float64Var(&c.Temperature, "temperature", c.Temperature, "Sampling temperature")
	fs.Float64Var(&c.PresencePenalty, "presence-penalty", c.PresencePenalty, "Presence penalty")
	fs.Float64Var(&c.TopP, "top-p", c.TopP, "Nucleus sampling probability")
	fs.Float64Var(&c.FrequencyPenalty, "frequency-penalty", c.FrequencyPenalty, "Frequency penalty")
	fs.BoolVar(&c.AutoTitle, "auto-title", c.AutoTitle, "Generate a title after the first reply")
	fs.BoolVar(&c.CountTotalTokens, "count-total-tokens", c.CountTotalTokens, "Track token usage per model")
	fs.StringVar(&c.Language, "language", c.Language, "Interface and title language (BCP 47)")
	fs.StringVar(&c.BridgePrefix, "bridge-prefix", c.BridgePrefix, "Model prefix routed to the host bridge")
	fs.StringVar(&c.ModelsFile, "models-file", c.ModelsFile, "YAML or JSON model table merged into the catalog")
	fs.StringVar(&c.ModelsURL, "models-url", c.ModelsURL, "URL of a models.json registry merged into the catalog")
	fs.StringVar(&c.Persona, "persona", c.Persona, "Named persona from .gochat/personas used as system message")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	fs.BoolVar(&c.PrettyLog, "pretty-log", c.PrettyLog, "Colorized log output")
	return fs.Parse(args)
}

// ModelConfig returns the sampling settings of new chats.
func (c *Config) ModelConfig() llm.ModelConfig {
	return llm.ModelConfig{
		Model:            c.Model,
		MaxTokens:        c.MaxTokens,
		Temperature:      c.Temperature,
		PresencePenalty:  c.PresencePenalty,
		TopP:             c.TopP,
		FrequencyPenalty: c.FrequencyPenalty,
	}
}
