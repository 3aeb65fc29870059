// Package config loads the report and server settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	forecaster "github.com/aouyang1/go-macroforecast"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DateLayout = "2006-01-02"

	// EnvPrefix prefixes every environment override
	EnvPrefix = "MACRO_"

	DefaultIndicator       = "hicp:CP00"
	DefaultForecastMonths  = 12
	DefaultTrainingWindow  = 24
	DefaultListenAddr      = ":8000"
	DefaultLogLevel        = "info"
	DefaultRefreshSchedule = "0 6 * * *"
	DefaultCacheTTL        = 6 * time.Hour
	DefaultOutputDir       = "output"
	DefaultRequestsPerSec  = 5
	DefaultRequestTimeout  = 30 * time.Second
)

var (
	ErrNoCountries       = errors.New("at least one country is required")
	ErrInvalidMonths     = errors.New("forecast months must be at least 1")
	ErrInvalidWindow     = errors.New("training window must be at least 2")
	ErrInvalidDateRange  = errors.New("historical start must not be after analysis start")
	ErrInvalidSchedule   = errors.New("invalid refresh schedule")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidCacheTTL   = errors.New("cache ttl must be positive")
	ErrInvalidRateLimit  = errors.New("requests per second must be positive")
	ErrInvalidEnvValue   = errors.New("invalid environment override")
	ErrInvalidDateFormat = errors.New("dates must be formatted as YYYY-MM-DD or YYYY-MM")
)

// Date is a calendar day that reads and writes as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate returns the UTC midnight date
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or YYYY-MM, the latter meaning the first of the month
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t}, nil
		}
	}
	return Date{}, fmt.Errorf("got %q, %w", s, ErrInvalidDateFormat)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Config holds the settings shared by the report command and the server
type Config struct {
	Countries       []string `yaml:"countries" json:"countries"`
	AnalysisStart   Date     `yaml:"analysis_start_date" json:"analysis_start_date"`
	HistoricalStart Date     `yaml:"historical_start_date" json:"historical_start_date"`

	// Indicator is the series compared across countries and forecast
	Indicator      string   `yaml:"indicator" json:"indicator"`
	Categories     []string `yaml:"categories" json:"categories"`
	RateIndicators []string `yaml:"rate_indicators" json:"rate_indicators"`

	ForecastMonths int     `yaml:"forecast_months" json:"forecast_months"`
	TrainingWindow int     `yaml:"forecast_training_window" json:"forecast_training_window"`
	DisplayLimit   Date    `yaml:"forecast_display_limit" json:"forecast_display_limit"`
	IntervalGrowth string  `yaml:"interval_growth" json:"interval_growth"`
	Zscore         float64 `yaml:"zscore" json:"zscore"`

	ListenAddr      string        `yaml:"listen_addr" json:"listen_addr"`
	LogLevel        string        `yaml:"log_level" json:"log_level"`
	RefreshSchedule string        `yaml:"refresh_schedule" json:"refresh_schedule"`
	CacheTTL        time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	OutputDir       string        `yaml:"output_dir" json:"output_dir"`

	// Offline skips every network fetch and uses the sample series
	Offline         bool          `yaml:"offline" json:"offline"`
	EurostatBaseURL string        `yaml:"eurostat_base_url" json:"eurostat_base_url"`
	FredBaseURL     string        `yaml:"fred_base_url" json:"fred_base_url"`
	RequestsPerSec  int           `yaml:"requests_per_sec" json:"requests_per_sec"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// Default returns the built in configuration
func Default() *Config {
	return &Config{
		Countries:       []string{"AT", "DE", "EA20"},
		AnalysisStart:   NewDate(2020, time.January, 1),
		HistoricalStart: NewDate(2002, time.January, 1),
		Indicator:       DefaultIndicator,
		Categories:      []string{"CP00", "FOOD", "NRG", "IGD", "SERV"},
		RateIndicators:  []string{"ecb:MRR_RT", "ecb:DFR", "fed:DFF"},
		ForecastMonths:  DefaultForecastMonths,
		TrainingWindow:  DefaultTrainingWindow,
		DisplayLimit:    NewDate(2026, time.March, 31),
		IntervalGrowth:  string(forecaster.IntervalConstant),
		Zscore:          forecaster.DefaultZscore,
		ListenAddr:      DefaultListenAddr,
		LogLevel:        DefaultLogLevel,
		RefreshSchedule: DefaultRefreshSchedule,
		CacheTTL:        DefaultCacheTTL,
		OutputDir:       DefaultOutputDir,
		RequestsPerSec:  DefaultRequestsPerSec,
		RequestTimeout:  DefaultRequestTimeout,
	}
}

// LoadEnvFiles loads .env style files into the process environment. Missing files are ignored.
func LoadEnvFiles(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg(".env file not found, relying on actual environment variables")
	}
}

// Load reads the YAML file at path over the defaults, applies MACRO_* environment overrides and
// validates the result. An empty path uses only defaults and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config %s, %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var err error
	set := func(name string, parse func(string) error) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" || err != nil {
			return
		}
		if perr := parse(v); perr != nil {
			err = fmt.Errorf("%s%s=%q, %w, %w", EnvPrefix, name, v, ErrInvalidEnvValue, perr)
		}
	}

	set("COUNTRIES", func(v string) error {
		c.Countries = strings.Split(v, ",")
		return nil
	})
	str("INDICATOR", &c.Indicator)
	set("ANALYSIS_START", func(v string) (perr error) {
		c.AnalysisStart, perr = ParseDate(v)
		return
	})
	set("HISTORICAL_START", func(v string) (perr error) {
		c.HistoricalStart, perr = ParseDate(v)
		return
	})
	set("DISPLAY_LIMIT", func(v string) (perr error) {
		c.DisplayLimit, perr = ParseDate(v)
		return
	})
	set("FORECAST_MONTHS", func(v string) (perr error) {
		c.ForecastMonths, perr = strconv.Atoi(v)
		return
	})
	set("TRAINING_WINDOW", func(v string) (perr error) {
		c.TrainingWindow, perr = strconv.Atoi(v)
		return
	})
	set("CACHE_TTL", func(v string) (perr error) {
		c.CacheTTL, perr = time.ParseDuration(v)
		return
	})
	set("REQUEST_TIMEOUT", func(v string) (perr error) {
		c.RequestTimeout, perr = time.ParseDuration(v)
		return
	})
	set("REQUESTS_PER_SEC", func(v string) (perr error) {
		c.RequestsPerSec, perr = strconv.Atoi(v)
		return
	})
	set("OFFLINE", func(v string) (perr error) {
		c.Offline, perr = strconv.ParseBool(v)
		return
	})
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("REFRESH_SCHEDULE", &c.RefreshSchedule)
	str("OUTPUT_DIR", &c.OutputDir)
	str("EUROSTAT_URL", &c.EurostatBaseURL)
	str("FRED_URL", &c.FredBaseURL)
	return err
}

// Validate returns a normalized copy with unset fields defaulted
func (c *Config) Validate() (*Config, error) {
	if c == nil {
		return Default().Validate()
	}
	cfg := *c
	def := Default()

	cfg.Countries = normalizeCodes(cfg.Countries)
	if len(cfg.Countries) == 0 {
		return nil, ErrNoCountries
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = def.Categories
	} else {
		cfg.Categories = normalizeCodes(cfg.Categories)
	}
	if cfg.RateIndicators == nil {
		cfg.RateIndicators = def.RateIndicators
	}
	if cfg.Indicator == "" {
		cfg.Indicator = def.Indicator
	}

	if cfg.ForecastMonths < 1 {
		return nil, fmt.Errorf("got %d, %w", cfg.ForecastMonths, ErrInvalidMonths)
	}
	if cfg.TrainingWindow < 2 {
		return nil, fmt.Errorf("got %d, %w", cfg.TrainingWindow, ErrInvalidWindow)
	}
	if cfg.HistoricalStart.After(cfg.AnalysisStart.Time) {
		return nil, fmt.Errorf("historical %s, analysis %s, %w", cfg.HistoricalStart, cfg.AnalysisStart, ErrInvalidDateRange)
	}
	if _, err := cfg.ForecastOptions().Validate(); err != nil {
		return nil, err
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("got %q, %w", cfg.LogLevel, ErrInvalidLogLevel)
	}
	if cfg.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
			return nil, fmt.Errorf("got %q, %w, %w", cfg.RefreshSchedule, ErrInvalidSchedule, err)
		}
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("got %s, %w", cfg.CacheTTL, ErrInvalidCacheTTL)
	}
	if cfg.RequestsPerSec <= 0 {
		return nil, fmt.Errorf("got %d, %w", cfg.RequestsPerSec, ErrInvalidRateLimit)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}
	return &cfg, nil
}

// WithCountries returns a validated copy restricted to the given countries
func (c *Config) WithCountries(countries []string) (*Config, error) {
	cfg := *c
	cfg.Countries = countries
	return cfg.Validate()
}

// WithDates returns a validated copy with new analysis and historical starts. Zero dates keep the
// current values.
func (c *Config) WithDates(analysisStart, historicalStart Date) (*Config, error) {
	cfg := *c
	if !analysisStart.IsZero() {
		cfg.AnalysisStart = analysisStart
	}
	if !historicalStart.IsZero() {
		cfg.HistoricalStart = historicalStart
	}
	return cfg.Validate()
}

// ForecastOptions maps the interval settings onto forecaster options
func (c *Config) ForecastOptions() *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	opt.Zscore = c.Zscore
	opt.Interval = forecaster.IntervalGrowth(c.IntervalGrowth)
	return opt
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
