package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the registrar.
type Config struct {
	SpecDir      string         `mapstructure:"spec_dir"`
	GeneratedDir string         `mapstructure:"generated_dir"`
	DistDir      string         `mapstructure:"dist_dir"`
	CacheDir     string         `mapstructure:"cache_dir"`
	CacheTTL     string         `mapstructure:"cache_ttl"`
	NoCache      bool           `mapstructure:"no_cache"`
	RepoPath     string         `mapstructure:"repo_path"`
	LogLevel     string         `mapstructure:"log_level"`
	Upstream     UpstreamConfig `mapstructure:"upstream"`
	Registry     RegistryConfig `mapstructure:"registry"`
	Bundle       BundleConfig   `mapstructure:"bundle"`
	GitHub       GitHubConfig   `mapstructure:"github"`
}

// UpstreamConfig holds upstream catalog settings.
type UpstreamConfig struct {
	URL     string `mapstructure:"url"`
	Timeout string `mapstructure:"timeout"`
}

// RegistryConfig holds canonical registry settings.
type RegistryConfig struct {
	Version string `mapstructure:"version"`
	Source  string `mapstructure:"source"`
}

// BundleConfig holds bundle output settings.
type BundleConfig struct {
	Schema string `mapstructure:"schema"`
	Output string `mapstructure:"output"`
}

// GitHubConfig holds GitHub-related settings for artifact publication.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	BaseBranch string `mapstructure:"base_branch"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("spec_dir", "./semconv/providers")
	v.SetDefault("generated_dir", "./semconv/providers/_generated")
	v.SetDefault("dist_dir", "./dist")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("no_cache", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("upstream.url", "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json")
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("registry.version", "0.1")
	v.SetDefault("registry.source", "litellm")
	v.SetDefault("bundle.schema", "https://oisp.dev/schema/v0.1/bundle.schema.json")
	v.SetDefault("bundle.output", "./dist/oisp-spec-bundle.json")
	v.SetDefault("github.base_branch", "main")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/registrar")
	}

	v.SetEnvPrefix("REGISTRAR")
	v.AutomaticEnv()

	_ = v.BindEnv("github.token", "GITHUB_TOKEN")
	_ = v.BindEnv("upstream.url", "REGISTRAR_UPSTREAM_URL")
	_ = v.BindEnv("upstream.timeout", "REGISTRAR_UPSTREAM_TIMEOUT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	for _, p := range []*string{&cfg.SpecDir, &cfg.GeneratedDir, &cfg.DistDir} {
		if !filepath.IsAbs(*p) {
			abs, err := filepath.Abs(*p)
			if err != nil {
				return nil, fmt.Errorf("resolving path %s: %w", *p, err)
			}
			*p = abs
		}
	}

	return &cfg, nil
}

// UpstreamTimeout parses the configured fetch timeout, falling back to 30s.
func (c *Config) UpstreamTimeout() time.Duration {
	d, err := time.ParseDuration(c.Upstream.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/registrar-cache"
	}
	return filepath.Join(home, ".cache", "registrar")
}
