package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	KeyringService         = "diffscribe"
	KeyringConfluenceToken = "confluence-token"

	defaultConfigName = ".diffscribe"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Confluence ConfluenceConfig `mapstructure:"confluence"`
	GitHub     GitHubConfig     `mapstructure:"github"`
	Output     OutputConfig     `mapstructure:"output"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Log        LogConfig        `mapstructure:"log"`
	Timeout    time.Duration    `mapstructure:"timeout" validate:"gt=0"`
}

type ConfluenceConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"omitempty,url"`
	Token             string  `mapstructure:"token"`
	SpaceKey          string  `mapstructure:"space_key"`
	ParentPageID      string  `mapstructure:"parent_page_id"`
	UseKeyring        bool    `mapstructure:"use_keyring"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
}

type GitHubConfig struct {
	Token             string  `mapstructure:"token"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
}

type OutputConfig struct {
	Target string `mapstructure:"target" validate:"oneof=confluence mdx"`
	Dir    string `mapstructure:"dir"`
}

type ClassifierConfig struct {
	RulesFile string `mapstructure:"rules_file"`
	Workers   int    `mapstructure:"workers" validate:"gte=1"`
}

type RepositoryConfig struct {
	WorkDir string `mapstructure:"work_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

func Default() *Config {
	return &Config{
		Confluence: ConfluenceConfig{RequestsPerSecond: 2},
		GitHub:     GitHubConfig{RequestsPerSecond: 1},
		Output:     OutputConfig{Target: "confluence", Dir: "docs/changes"},
		Classifier: ClassifierConfig{Workers: 1},
		Log:        LogConfig{Level: "info", Format: "text"},
		Timeout:    2 * time.Minute,
	}
}

// HasConfluence reports whether the settings needed to publish to Confluence are present
func (c *Config) HasConfluence() bool {
	return c.Confluence.BaseURL != "" && c.Confluence.Token != "" && c.Confluence.SpaceKey != ""
}

// LoadConfig builds the configuration from, in increasing precedence: defaults, the
// YAML file at path (or .diffscribe.yaml in the working directory when path is
// empty), and the environment. .env.local and .env are loaded first without
// overriding variables already set.
func LoadConfig(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	v.SetEnvPrefix("DIFFSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Confluence.UseKeyring && cfg.Confluence.Token == "" {
		token, err := keyring.Get(KeyringService, KeyringConfluenceToken)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("failed to read confluence token from keyring: %w", err)
		}
		cfg.Confluence.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SaveConfluenceToken stores the token in the OS keychain
func SaveConfluenceToken(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := keyring.Set(KeyringService, KeyringConfluenceToken, token); err != nil {
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	return nil
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("confluence.base_url", cfg.Confluence.BaseURL)
	v.SetDefault("confluence.token", cfg.Confluence.Token)
	v.SetDefault("confluence.space_key", cfg.Confluence.SpaceKey)
	v.SetDefault("confluence.parent_page_id", cfg.Confluence.ParentPageID)
	v.SetDefault("confluence.use_keyring", cfg.Confluence.UseKeyring)
	v.SetDefault("confluence.requests_per_second", cfg.Confluence.RequestsPerSecond)
	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.requests_per_second", cfg.GitHub.RequestsPerSecond)
	v.SetDefault("output.target", cfg.Output.Target)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("classifier.rules_file", cfg.Classifier.RulesFile)
	v.SetDefault("classifier.workers", cfg.Classifier.Workers)
	v.SetDefault("repository.work_dir", cfg.Repository.WorkDir)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("timeout", cfg.Timeout)
}

// bindLegacyEnv accepts the unprefixed variable names used by existing deployments
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"confluence.base_url":       "CONFLUENCE_BASE_URL",
		"confluence.token":          "CONFLUENCE_TOKEN",
		"confluence.space_key":      "CONFLUENCE_SPACE_KEY",
		"confluence.parent_page_id": "CONFLUENCE_PARENT_PAGE_ID",
		"github.token":              "GITHUB_TOKEN",
	}
	for key, env := range bindings {
		prefixed := "DIFFSCRIBE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}
