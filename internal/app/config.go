package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/UniqueRed/DoorDashScraping/internal/browser"
	"github.com/UniqueRed/DoorDashScraping/internal/output"
)

const (
	ProviderScrapybara = "scrapybara"
	ProviderLocal      = "local"

	DefaultAPIKeyEnv  = "SCRAPYBARA_API_KEY"
	DefaultConfigPath = "configs/example.yaml"
)

var ErrMissingAPIKey = errors.New("api key is not set")

type SelectorConfig struct {
	Item   string `yaml:"item"`
	ItemID string `yaml:"item_id_attr"`
	Close  string `yaml:"close"`
}

type Config struct {
	StoreURL string `yaml:"store_url"`

	Provider     string `yaml:"provider"`      // scrapybara | local
	APIKeyEnv    string `yaml:"api_key_env"`   // env var holding the provisioning key
	ProvisionURL string `yaml:"provision_url"` // empty for the public API
	Headless     bool   `yaml:"headless"`      // local provider only
	ChromePath   string `yaml:"chrome_path"`   // local provider only

	Mode            string         `yaml:"mode"` // click | count
	EndpointPrefix  string         `yaml:"endpoint_prefix"`
	Selectors       SelectorConfig `yaml:"selectors"`
	StableThreshold int            `yaml:"stable_threshold"`
	ScrollFraction  float64        `yaml:"scroll_fraction"`
	SettleMs        int            `yaml:"settle_ms"`
	IDWaitMs        int            `yaml:"id_wait_ms"`
	OpenWaitMs      int            `yaml:"open_wait_ms"`
	CloseWaitMs     int            `yaml:"close_wait_ms"`
	MaxIterations   int            `yaml:"max_iterations"`

	Out    string `yaml:"out"`    // "-" for stdout
	Format string `yaml:"format"` // text | table | csv | json

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// LoadConfig reads a YAML config. An empty path yields the zero
// config, to be completed by flags and defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptionalConfig is LoadConfig for a path that may not exist.
// A missing file yields the zero config.
func LoadOptionalConfig(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadEnv loads .env style files into the process environment.
// Missing files are ignored.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderScrapybara
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Mode == "" {
		c.Mode = string(browser.ModeClick)
	}
	if c.EndpointPrefix == "" {
		c.EndpointPrefix = browser.DefaultEndpointPrefix
	}
	if c.Selectors.Item == "" {
		c.Selectors.Item = browser.DefaultSelectors.Item
	}
	if c.Selectors.ItemID == "" {
		c.Selectors.ItemID = browser.DefaultSelectors.ItemID
	}
	if c.Selectors.Close == "" {
		c.Selectors.Close = browser.DefaultSelectors.Close
	}

	def := browser.DefaultLoopOptions()
	if c.StableThreshold <= 0 {
		c.StableThreshold = def.StableThreshold
	}
	if c.ScrollFraction <= 0 {
		c.ScrollFraction = def.ScrollFraction
	}
	if c.SettleMs <= 0 {
		c.SettleMs = int(def.SettleDelay / time.Millisecond)
	}
	if c.IDWaitMs <= 0 {
		c.IDWaitMs = int(def.IDWait / time.Millisecond)
	}
	if c.OpenWaitMs <= 0 {
		c.OpenWaitMs = int(def.OpenWait / time.Millisecond)
	}
	if c.CloseWaitMs <= 0 {
		c.CloseWaitMs = int(def.CloseWait / time.Millisecond)
	}

	if c.Out == "" {
		c.Out = "-"
	}
	if c.Format == "" {
		c.Format = string(output.FormatText)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c Config) validate() error {
	if c.StoreURL == "" {
		return errors.New("store_url is required")
	}
	if c.Provider != ProviderScrapybara && c.Provider != ProviderLocal {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if _, err := browser.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.ScrollFraction > 1 {
		return fmt.Errorf("scroll_fraction %.2f is larger than one viewport", c.ScrollFraction)
	}
	return nil
}

// APIKey returns the provisioning credential from the environment.
func (c Config) APIKey() (string, error) {
	key := os.Getenv(c.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingAPIKey, c.APIKeyEnv)
	}
	return key, nil
}

func (c Config) loopOptions() browser.LoopOptions {
	mode, _ := browser.ParseMode(c.Mode)
	return browser.LoopOptions{
		Mode:            mode,
		StableThreshold: c.StableThreshold,
		ScrollFraction:  c.ScrollFraction,
		SettleDelay:     time.Duration(c.SettleMs) * time.Millisecond,
		IDWait:          time.Duration(c.IDWaitMs) * time.Millisecond,
		OpenWait:        time.Duration(c.OpenWaitMs) * time.Millisecond,
		CloseWait:       time.Duration(c.CloseWaitMs) * time.Millisecond,
		MaxIterations:   c.MaxIterations,
	}
}

func (c Config) selectors() browser.Selectors {
	return browser.Selectors{
		Item:   c.Selectors.Item,
		ItemID: c.Selectors.ItemID,
		Close:  c.Selectors.Close,
	}
}
