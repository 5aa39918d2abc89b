// Package config loads harvester settings from defaults, an optional YAML
// file, a .env file and CAPAS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/joaobzao/capas-harvester/internal/enrich"
	"github.com/joaobzao/capas-harvester/pkg/llm"
	"github.com/joaobzao/capas-harvester/pkg/providers"
)

const envPrefix = "CAPAS"

type Source struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type Output struct {
	Dir string `mapstructure:"dir"`
}

type AI struct {
	Provider         string        `mapstructure:"provider"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	BatchSize        int           `mapstructure:"batch_size"`
	BatchDelay       time.Duration `mapstructure:"batch_delay"`
	DigestPerSection int           `mapstructure:"digest_per_section"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Schedule struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full harvester configuration.
type Config struct {
	Source         Source   `mapstructure:"source"`
	Output         Output   `mapstructure:"output"`
	AI             AI       `mapstructure:"ai"`
	Log            Log      `mapstructure:"log"`
	PublishersFile string   `mapstructure:"publishers_file"`
	Schedule       Schedule `mapstructure:"schedule"`
	Server         Server   `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", providers.DefaultBaseURL)
	v.SetDefault("source.user_agent", providers.DefaultUserAgent)
	v.SetDefault("source.timeout", 15*time.Second)
	v.SetDefault("output.dir", "public")
	v.SetDefault("ai.provider", llm.ProviderGemini)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.batch_size", enrich.DefaultBatchSize)
	v.SetDefault("ai.batch_delay", enrich.DefaultBatchDelay)
	v.SetDefault("ai.digest_per_section", enrich.DefaultDigestPerSection)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("publishers_file", "")
	v.SetDefault("schedule.cron", "0 */3 * * *")
	v.SetDefault("schedule.run_on_start", true)
	v.SetDefault("server.addr", ":8080")
}

// Load reads configuration. path is an optional YAML file; a missing .env
// file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ai.api_key", envPrefix+"_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.AI.APIKey = strings.TrimSpace(cfg.AI.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source.base_url %q is not an absolute URL", c.Source.BaseURL)
	}
	if c.Source.Timeout <= 0 {
		return errors.New("source.timeout must be positive")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir is required")
	}
	switch c.AI.Provider {
	case llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderOllama:
	default:
		return fmt.Errorf("ai.provider %q is not one of gemini, openai, ollama", c.AI.Provider)
	}
	if c.AI.BatchSize <= 0 {
		return errors.New("ai.batch_size must be positive")
	}
	if c.AI.BatchDelay < 0 {
		return errors.New("ai.batch_delay must not be negative")
	}
	if c.AI.DigestPerSection <= 0 {
		return errors.New("ai.digest_per_section must be positive")
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	return nil
}

// Provider returns the scrape target.
func (c *Config) Provider() providers.Provider {
	return providers.Provider{
		BaseURL:   c.Source.BaseURL,
		UserAgent: c.Source.UserAgent,
	}.Normalize()
}

// LLM returns the model client settings.
func (c *Config) LLM() llm.Settings {
	return llm.Settings{
		Provider: c.AI.Provider,
		APIKey:   c.AI.APIKey,
		BaseURL:  c.AI.BaseURL,
		Model:    c.AI.Model,
		Timeout:  c.AI.Timeout,
	}
}

// EnrichOptions returns the batching options.
func (c *Config) EnrichOptions() enrich.Options {
	return enrich.Options{
		BatchSize:        c.AI.BatchSize,
		BatchDelay:       c.AI.BatchDelay,
		DigestPerSection: c.AI.DigestPerSection,
	}
}
