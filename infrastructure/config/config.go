package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"storefront_e2e/application/storefront"
	"storefront_e2e/domain/entities"
	"storefront_e2e/infrastructure/browser"
	"storefront_e2e/infrastructure/noise"
)

// Environment variables read by Load
const (
	EnvBaseURL            = "STOREFRONT_BASE_URL"
	EnvDriver             = "STOREFRONT_DRIVER"
	EnvHeadless           = "STOREFRONT_HEADLESS"
	EnvRemoteDebuggingURL = "STOREFRONT_REMOTE_DEBUGGING_URL"
	EnvChromeDriverPath   = "STOREFRONT_CHROMEDRIVER_PATH"
	EnvChromeBinary       = "STOREFRONT_CHROME_BINARY"
	EnvReportDir          = "STOREFRONT_REPORT_DIR"
	EnvLogLevel           = "STOREFRONT_LOG_LEVEL"
	EnvSuiteRetries       = "STOREFRONT_SUITE_RETRIES"
)

// Config is the merged configuration: defaults, then the TOML file, then the environment
type Config struct {
	BaseURL       string   `toml:"base_url"`
	LogLevel      string   `toml:"log_level"`
	ReportDir     string   `toml:"report_dir"`
	SuiteRetries  int      `toml:"suite_retries"`
	CartEndpoint  string   `toml:"cart_endpoint"`
	ReadyElement  string   `toml:"ready_element"`
	FormElement   string   `toml:"form_element"`
	BlockPatterns []string `toml:"block_patterns"`
	// ScenarioTimeout bounds a single scenario attempt
	ScenarioTimeout time.Duration `toml:"scenario_timeout"`

	Paths       PathsConfig                   `toml:"paths"`
	Browser     BrowserConfig                 `toml:"browser"`
	Timeouts    TimeoutsConfig                `toml:"timeouts"`
	Retry       entities.RetryPolicy          `toml:"retry"`
	Suppression SuppressionConfig             `toml:"suppression"`
	Noise       NoiseConfig                   `toml:"noise"`
	Selectors   map[string][]entities.Locator `toml:"selectors"`
}

// BrowserConfig selects and tunes the browser driver
type BrowserConfig struct {
	Driver             string            `toml:"driver"`
	Headless           bool              `toml:"headless"`
	Viewport           entities.Viewport `toml:"viewport"`
	RemoteDebuggingURL string            `toml:"remote_debugging_url"`
	ChromeDriverPath   string            `toml:"chromedriver_path"`
	ChromeBinary       string            `toml:"chrome_binary"`
	ChromeDriverPort   int               `toml:"chromedriver_port"`
	SlowMo             time.Duration     `toml:"slow_mo"`
}

// PathsConfig - storefront pages visited by the scenarios
type PathsConfig struct {
	Home       string `toml:"home"`
	Product    string `toml:"product"`
	Collection string `toml:"collection"`
}

// TimeoutsConfig - durations accept "1500ms" style strings
type TimeoutsConfig struct {
	PollInterval  time.Duration `toml:"poll_interval"`
	CustomElement time.Duration `toml:"custom_element"`
	SettleDelay   time.Duration `toml:"settle_delay"`
	Ready         time.Duration `toml:"ready"`
	Consent       time.Duration `toml:"consent"`
	Visible       time.Duration `toml:"visible"`
	Enable        time.Duration `toml:"enable"`
	Response      time.Duration `toml:"response"`
	DrawerProbe   time.Duration `toml:"drawer_probe"`
	Drawer        time.Duration `toml:"drawer"`
	Popup         time.Duration `toml:"popup"`
	VariantSettle time.Duration `toml:"variant_settle"`
	CartUpdate    time.Duration `toml:"cart_update"`
	Navigation    time.Duration `toml:"navigation"`
}

// SuppressionConfig replaces the overlay and exclusion lists when set
type SuppressionConfig struct {
	Overlays   []string `toml:"overlays"`
	Exclusions []string `toml:"exclusions"`
}

// NoiseConfig extends the default third-party error keywords and domains
type NoiseConfig struct {
	Keywords []string `toml:"keywords"`
	Domains  []string `toml:"domains"`
}

// Default - configuration used when no file or environment is present
func Default() *Config {
	opts := storefront.DefaultOptions("")
	settings := browser.DefaultSettings()
	t := opts.Timeouts
	return &Config{
		LogLevel:        "info",
		SuiteRetries:    1,
		CartEndpoint:    opts.CartEndpoint,
		ReadyElement:    opts.ReadyElement,
		FormElement:     opts.FormElement,
		BlockPatterns:   opts.BlockPatterns,
		ScenarioTimeout: 3 * time.Minute,
		Paths: PathsConfig{
			Home:       "/",
			Product:    "/products/essentials",
			Collection: "/collections/all",
		},
		Browser: BrowserConfig{
			Driver:           settings.Driver,
			Headless:         settings.Headless,
			Viewport:         settings.Viewport,
			ChromeDriverPort: settings.ChromeDriverPort,
		},
		Timeouts: TimeoutsConfig{
			PollInterval:  t.PollInterval,
			CustomElement: t.CustomElement,
			SettleDelay:   t.SettleDelay,
			Ready:         t.Ready,
			Consent:       t.Consent,
			Visible:       t.Visible,
			Enable:        t.Enable,
			Response:      t.Response,
			DrawerProbe:   t.DrawerProbe,
			Drawer:        t.Drawer,
			Popup:         t.Popup,
			VariantSettle: t.VariantSettle,
			CartUpdate:    t.CartUpdate,
			Navigation:    t.Navigation,
		},
		Retry: opts.Retry,
		Suppression: SuppressionConfig{
			Overlays:   opts.Suppression.Overlays,
			Exclusions: opts.Suppression.Exclusions,
		},
	}
}

// Load - reads .env (optional), the TOML file at path (optional) and STOREFRONT_* variables
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strVars := map[string]*string{
		EnvBaseURL:            &c.BaseURL,
		EnvDriver:             &c.Browser.Driver,
		EnvRemoteDebuggingURL: &c.Browser.RemoteDebuggingURL,
		EnvChromeDriverPath:   &c.Browser.ChromeDriverPath,
		EnvChromeBinary:       &c.Browser.ChromeBinary,
		EnvReportDir:          &c.ReportDir,
		EnvLogLevel:           &c.LogLevel,
	}
	for name, dst := range strVars {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		c.Browser.Headless = headless
	}
	if v, ok := lookup(EnvSuiteRetries); ok && v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSuiteRetries, err)
		}
		c.SuiteRetries = retries
	}
	return nil
}

// Validate checks the settings a suite run depends on
func (c *Config) Validate() error {
	var errs []string
	if c.BaseURL == "" {
		errs = append(errs, fmt.Sprintf("base_url is required (set %s or -base-url)", EnvBaseURL))
	} else if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("base_url %q must be an http(s) URL", c.BaseURL))
	}
	if !slices.Contains(browser.Drivers, c.Browser.Driver) {
		errs = append(errs, fmt.Sprintf("unknown driver %q (supported: %v)", c.Browser.Driver, browser.Drivers))
	}
	if c.SuiteRetries < 0 {
		errs = append(errs, "suite_retries must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Level returns the configured log level, info when unparsable
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// HelperOptions builds the interaction layer options with selector overrides applied
func (c *Config) HelperOptions() (storefront.Options, error) {
	opts := storefront.DefaultOptions(c.BaseURL)
	opts.CartEndpoint = c.CartEndpoint
	opts.ReadyElement = c.ReadyElement
	opts.FormElement = c.FormElement
	opts.BlockPatterns = c.BlockPatterns
	opts.Retry = c.Retry
	opts.Suppression = storefront.SuppressionPolicy{
		Overlays:   c.Suppression.Overlays,
		Exclusions: c.Suppression.Exclusions,
	}
	t := c.Timeouts
	opts.Timeouts = storefront.Timeouts{
		PollInterval:  t.PollInterval,
		CustomElement: t.CustomElement,
		SettleDelay:   t.SettleDelay,
		Ready:         t.Ready,
		Consent:       t.Consent,
		Visible:       t.Visible,
		Enable:        t.Enable,
		Response:      t.Response,
		DrawerProbe:   t.DrawerProbe,
		Drawer:        t.Drawer,
		Popup:         t.Popup,
		VariantSettle: t.VariantSettle,
		CartUpdate:    t.CartUpdate,
		Navigation:    t.Navigation,
	}

	names := make([]string, 0, len(c.Selectors))
	for name := range c.Selectors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := opts.Selectors.Override(name, c.Selectors[name]); err != nil {
			return storefront.Options{}, err
		}
	}
	return opts, nil
}

// BrowserSettings returns the driver settings
func (c *Config) BrowserSettings() browser.Settings {
	b := c.Browser
	return browser.Settings{
		Driver:             b.Driver,
		Headless:           b.Headless,
		Viewport:           b.Viewport,
		RemoteDebuggingURL: b.RemoteDebuggingURL,
		ChromeDriverPath:   b.ChromeDriverPath,
		ChromeBinary:       b.ChromeBinary,
		ChromeDriverPort:   b.ChromeDriverPort,
		SlowMo:             b.SlowMo,
	}
}

// NoiseFilter builds the page error filter from the defaults plus configured extras
func (c *Config) NoiseFilter(logger logrus.FieldLogger) *noise.Filter {
	return noise.NewFilter(
		slices.Concat(noise.DefaultKeywords, c.Noise.Keywords),
		slices.Concat(noise.DefaultDomains, c.Noise.Domains),
		logger,
	)
}
