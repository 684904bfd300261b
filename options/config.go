// Package options provides configuration management for stepchat.
package options

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/welcome"
)

// ErrUnknownBackend is returned for a backend name no constructor is
// registered for.
var ErrUnknownBackend = errors.New("unknown backend")

// DefaultBackend is the default backend to use if none is specified
var DefaultBackend = "http" // Configurable via 'STEPCHAT_BACKEND' (or via configuration files).

// DefaultEndpoint is the base URL of the answer service used by the http
// backend.
var DefaultEndpoint = "http://localhost:8000"

// DefaultModels is a map of backend names to their default models
var DefaultModels = map[string]string{
	"anthropic":  "claude-3-7-sonnet-20250219",
	"openai":     "gpt-4o",
	"openai-sdk": "gpt-4o-mini",
	"ollama":     "llama3.2",
	"googleai":   "gemini-pro",
	"dummy":      "dummy",
}

// Config holds the configuration for stepchat
type Config struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	Endpoint    string  `yaml:"endpoint"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`

	SystemPrompt string `yaml:"systemPrompt"`
	PlainText    bool   `yaml:"plainText"`

	CompletionTimeout time.Duration `yaml:"completionTimeout"`
	RateLimit         float64       `yaml:"rateLimit"`
	RetryAttempts     int           `yaml:"retryAttempts"`

	// Disclosure
	BatchSize     int           `yaml:"batchSize"`
	TypeInterval  time.Duration `yaml:"typeInterval"`
	TrailingPause time.Duration `yaml:"trailingPause"`

	// Welcome sequence
	NoWelcome       bool          `yaml:"noWelcome"`
	WelcomeMessage  string        `yaml:"welcomeMessage"`
	WelcomeDelay    time.Duration `yaml:"welcomeDelay"`
	WelcomeDots     time.Duration `yaml:"welcomeDots"`
	WelcomeInterval time.Duration `yaml:"welcomeInterval"`

	Debug bool `yaml:"debug"`

	// SlowResponses is a testing flag to simulate slow response generation
	SlowResponses bool `yaml:"slowResponses"`

	OpenAIAPIKey    string `yaml:"openaiAPIKey"`
	OpenAIBaseURL   string `yaml:"openaiBaseURL"`
	AnthropicAPIKey string `yaml:"anthropicAPIKey"`
	GoogleAPIKey    string `yaml:"googleAPIKey"`
}

// Disclosure returns the disclosure settings.
func (c *Config) Disclosure() disclosure.Settings {
	return disclosure.Settings{
		BatchSize:     c.BatchSize,
		Interval:      c.TypeInterval,
		TrailingPause: c.TrailingPause,
	}
}

// Welcome returns the welcome sequence options, or nil when the sequence
// is disabled.
func (c *Config) Welcome() *welcome.Options {
	if c.NoWelcome {
		return nil
	}
	return &welcome.Options{
		Message:  c.WelcomeMessage,
		Delay:    c.WelcomeDelay,
		Dots:     c.WelcomeDots,
		Interval: c.WelcomeInterval,
	}
}

// Retry returns the retry policy for answer requests.
func (c *Config) Retry() answer.RetryConfig {
	rc := answer.DefaultRetryConfig
	if c.RetryAttempts > 0 {
		rc.MaxAttempts = c.RetryAttempts
	}
	return rc
}

// LoadConfig loads the configuration from various sources in the following order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// If a config file is not found, it falls back to using defaults and flags.
func LoadConfig(path string, stderr io.Writer, flagSet *pflag.FlagSet) (*Config, error) {
	cfg, _, err := load(stderr, flagSet)
	return cfg, err
}

// Watch loads the configuration like LoadConfig and then watches the
// config file in use. onChange receives every configuration re-read after
// the file changes. Changes that fail to decode are reported to log, never
// to stderr, since the terminal may belong to the TUI by then. Without a
// config file there is nothing to watch.
func Watch(stderr io.Writer, flagSet *pflag.FlagSet, log *zap.SugaredLogger, onChange func(*Config)) (*Config, error) {
	cfg, v, err := load(stderr, flagSet)
	if err != nil {
		return nil, err
	}
	if path := v.ConfigFileUsed(); path == "" {
		return cfg, nil
	} else if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	v.OnConfigChange(configChangeHandler(v, log, onChange))
	v.WatchConfig()
	return cfg, nil
}

func configChangeHandler(v *viper.Viper, log *zap.SugaredLogger, onChange func(*Config)) func(fsnotify.Event) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return func(e fsnotify.Event) {
		if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
			return
		}
		next, err := unmarshal(v)
		if err != nil {
			log.Warnw("ignoring config change", "file", e.Name, "error", err)
			return
		}
		onChange(next)
	}
}

func load(stderr io.Writer, flagSet *pflag.FlagSet) (*Config, *viper.Viper, error) {
	if flagSet == nil {
		flagSet = pflag.CommandLine
	}
	v := viper.New()

	SetupViper(v, flagSet)
	SetupFlagNormalization(flagSet)

	// Read config file first
	if err := HandleConfigFile(v, stderr, flagSet); err != nil {
		return nil, nil, err
	}

	// Then bind flags (so they override config)
	if err := v.BindPFlags(flagSet); err != nil {
		return nil, nil, fmt.Errorf("unable to bind flags: %w", err)
	}

	backend := v.GetString("backend")
	if debug, _ := flagSet.GetBool("debug"); debug {
		fmt.Fprintf(stderr, "stepchat: backend is %q\n", backend)
	}

	// Check if model is explicitly set anywhere before setting default
	hasModel := flagSet.Changed("model") || v.InConfig("model")
	if !hasModel && IsEnvSet("STEPCHAT_MODEL") {
		hasModel = true
		v.Set("model", os.Getenv("STEPCHAT_MODEL"))
	}
	if !hasModel {
		if defaultModel, ok := DefaultModels[backend]; ok {
			v.Set("model", defaultModel)
			if verbose, _ := flagSet.GetBool("verbose"); verbose {
				fmt.Fprintf(stderr, "stepchat: using default model for %s backend: %s\n", backend, defaultModel)
			}
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return cfg, nil
}

// IsEnvSet checks if an environment variable is set
func IsEnvSet(key string) bool {
	_, exists := os.LookupEnv(key)
	return exists
}

// SetupViper configures viper with default values and settings
func SetupViper(v *viper.Viper, flagSet *pflag.FlagSet) {
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("temperature", 0.05)
	v.SetDefault("maxTokens", 4096)
	v.SetDefault("plainText", true)
	v.SetDefault("completionTimeout", 2*time.Minute)
	v.SetDefault("rateLimit", 2.0)
	v.SetDefault("retryAttempts", answer.DefaultRetryConfig.MaxAttempts)
	v.SetDefault("batchSize", disclosure.DefaultBatchSize)
	v.SetDefault("typeInterval", disclosure.DefaultInterval)
	v.SetDefault("trailingPause", disclosure.DefaultTrailingPause)
	v.SetDefault("welcomeMessage", welcome.DefaultMessage)
	v.SetDefault("welcomeDelay", welcome.DefaultDelay)
	v.SetDefault("welcomeDots", welcome.DefaultDots)
	v.SetDefault("welcomeInterval", welcome.DefaultInterval)

	v.AddConfigPath("/etc/stepchat/")
	v.AddConfigPath("$HOME/.stepchat")
	v.AddConfigPath(".")
	v.SetConfigName("config")

	v.SetEnvPrefix("STEPCHAT")
	v.AutomaticEnv()
	v.BindEnv("openaiAPIKey", "OPENAI_API_KEY")
	v.BindEnv("openaiBaseURL", "OPENAI_BASE_URL")
	v.BindEnv("anthropicAPIKey", "ANTHROPIC_API_KEY")
	v.BindEnv("googleAPIKey", "GOOGLE_API_KEY")

	if flagConfigFilePath := flagSet.Lookup("config"); flagConfigFilePath != nil && flagConfigFilePath.Changed {
		v.SetConfigFile(flagConfigFilePath.Value.String())
	}
}

// SetupFlagNormalization configures flag normalization to handle dashes in flag names
func SetupFlagNormalization(flagSet *pflag.FlagSet) {
	normalizeFunc := flagSet.GetNormalizeFunc()
	flagSet.SetNormalizeFunc(func(fs *pflag.FlagSet, name string) pflag.NormalizedName {
		result := normalizeFunc(fs, name)
		name = strings.ReplaceAll(string(result), "-", "")
		return pflag.NormalizedName(name)
	})
}

// HandleConfigFile handles loading the configuration file
func HandleConfigFile(v *viper.Viper, stderr io.Writer, flagSet *pflag.FlagSet) error {
	if configFlag := flagSet.Lookup("config"); configFlag != nil && configFlag.Changed {
		configFile := configFlag.Value.String()
		if verbose, _ := flagSet.GetBool("verbose"); verbose {
			fmt.Fprintf(stderr, "stepchat: trying to read config file: %s\n", configFile)
		}
		if _, err := os.Stat(configFile); err != nil {
			if verbose, _ := flagSet.GetBool("verbose"); verbose {
				fmt.Fprintf(stderr, "stepchat: config file %s not accessible: %v\n", configFile, err)
			}
			return nil
		}
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if debug, _ := flagSet.GetBool("debug"); debug {
				fmt.Fprintln(stderr, "stepchat: config file not found, using defaults")
			}
			return nil
		}
		return fmt.Errorf("unable to read config file: %w", err)
	}

	if verbose, _ := flagSet.GetBool("verbose"); verbose {
		fmt.Fprintf(stderr, "stepchat: successfully read config from %s\n", v.ConfigFileUsed())
	}
	return nil
}
