package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// HostConfig is the configuration of the headless host binary.
type HostConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Scan    ScanConfig    `yaml:"scan"`
	Status  StatusConfig  `yaml:"status"`
	Vocab   VocabConfig   `yaml:"vocab"`
	Watch   WatchConfig   `yaml:"watch"`
	Learner LearnerConfig `yaml:"learner"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int   `yaml:"port"           env:"SERVER_PORT"           env-default:"8080"`
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES" env-default:"4194304"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// ScanConfig mirrors ScanSettings with environment bindings.
type ScanConfig struct {
	MinWordLength           int           `yaml:"min_word_length"           env:"SCAN_MIN_WORD_LENGTH"           env-default:"3"`
	MaxMatchesPerUnit       int           `yaml:"max_matches_per_unit"      env:"SCAN_MAX_MATCHES_PER_UNIT"      env-default:"1000"`
	HighFrequencyDebounce   time.Duration `yaml:"high_frequency_debounce"   env:"SCAN_HIGH_FREQUENCY_DEBOUNCE"   env-default:"100ms"`
	IncrementalDebounce     time.Duration `yaml:"incremental_debounce"      env:"SCAN_INCREMENTAL_DEBOUNCE"      env-default:"500ms"`
	WatchdogTimeout         time.Duration `yaml:"watchdog_timeout"          env:"SCAN_WATCHDOG_TIMEOUT"          env-default:"30s"`
	HighFrequencySelectors  []string      `yaml:"high_frequency_selectors"  env:"SCAN_HIGH_FREQUENCY_SELECTORS"  env-separator:";"`
	AutoIncreaseFamiliarity bool          `yaml:"auto_increase_familiarity" env:"SCAN_AUTO_INCREASE_FAMILIARITY" env-default:"true"`
	DefinitionModifier      string        `yaml:"definition_modifier"       env:"SCAN_DEFINITION_MODIFIER"       env-default:"alt"`
	TranslationModifier     string        `yaml:"translation_modifier"      env:"SCAN_TRANSLATION_MODIFIER"      env-default:"alt+shift"`
}

// StatusConfig points at the remote familiarity service. An empty BaseURL
// selects the in-memory resolver.
type StatusConfig struct {
	BaseURL string        `yaml:"base_url" env:"STATUS_BASE_URL"`
	Token   string        `yaml:"token"    env:"STATUS_TOKEN"`
	Timeout time.Duration `yaml:"timeout"  env:"STATUS_TIMEOUT"  env-default:"10s"`
}

// VocabConfig locates the whitelist. An empty path runs the filter in degraded (fail-open) mode.
type VocabConfig struct {
	WhitelistPath string `yaml:"whitelist_path" env:"VOCAB_WHITELIST_PATH"`
}

// WatchConfig enables the directory change feed.
type WatchConfig struct {
	Dir string `yaml:"dir" env:"WATCH_DIR"`
}

// LearnerConfig locates the persisted learner settings. An empty path keeps them in memory.
type LearnerConfig struct {
	StorePath string `yaml:"store_path" env:"LEARNER_STORE_PATH"`
	Site      string `yaml:"site"       env:"LEARNER_SITE"       env-default:"localhost"`
}

// ScanSettings converts the loaded scan section into validated engine settings.
func (c ScanConfig) ScanSettings() ScanSettings {
	s := ScanSettings{
		MinWordLength:           c.MinWordLength,
		MaxMatchesPerUnit:       c.MaxMatchesPerUnit,
		HighFrequencyDebounce:   c.HighFrequencyDebounce,
		IncrementalDebounce:     c.IncrementalDebounce,
		WatchdogTimeout:         c.WatchdogTimeout,
		HighFrequencySelectors:  c.HighFrequencySelectors,
		AutoIncreaseFamiliarity: c.AutoIncreaseFamiliarity,
		DefinitionModifier:      c.DefinitionModifier,
		TranslationModifier:     c.TranslationModifier,
	}
	s.ApplyDefaults()
	return s
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *HostConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be 'json' or 'text', got '%s'", c.Log.Format)
	}
	scan := c.Scan.ScanSettings()
	if problems := scan.Validate(); len(problems) > 0 {
		return fmt.Errorf("scan: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is determined by CONFIG_PATH env (fallback "./config.yaml").
// If the file does not exist and CONFIG_PATH was not set explicitly,
// configuration is loaded from ENV + defaults only.
func Load() (*HostConfig, error) {
	var cfg HostConfig

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
