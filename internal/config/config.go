package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/compliance-tracker/internal/fetcher"
	"github.com/sells-group/compliance-tracker/internal/household"
	"github.com/sells-group/compliance-tracker/internal/normalize"
	"github.com/sells-group/compliance-tracker/internal/threshold"
	"github.com/sells-group/compliance-tracker/internal/tracker"
)

// Config holds the full application configuration.
type Config struct {
	Input     InputConfig     `yaml:"input" mapstructure:"input"`
	Columns   tracker.Columns `yaml:"columns" mapstructure:"columns"`
	Household HouseholdConfig `yaml:"household" mapstructure:"household"`
	Income    IncomeConfig    `yaml:"income" mapstructure:"income"`
	Schema    SchemaConfig    `yaml:"schema" mapstructure:"schema"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// InputConfig configures how roster files are read.
type InputConfig struct {
	HeaderRow int    `yaml:"header_row" mapstructure:"header_row"`
	Sheet     string `yaml:"sheet" mapstructure:"sheet"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
}

// HouseholdConfig selects the household-size policy: "names" or "column".
type HouseholdConfig struct {
	SizePolicy string `yaml:"size_policy" mapstructure:"size_policy"`
}

// IncomeConfig says whether the income column is annual or monthly.
type IncomeConfig struct {
	Period string `yaml:"period" mapstructure:"period"`
}

// SchemaConfig picks the tier schema and an optional file of custom ones.
type SchemaConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	File string `yaml:"file" mapstructure:"file"`
}

// ServerConfig configures the upload server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (if present) and environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from path and environment. An empty path
// falls back to an optional ./config.yaml; an explicit path must exist.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("COMPLIANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.header_row", 0)
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.delimiter", "")
	v.SetDefault("columns.unit", "Unit")
	v.SetDefault("columns.resident", "Resident Name")
	v.SetDefault("columns.income", "Annual Income")
	v.SetDefault("columns.household_size", "")
	v.SetDefault("columns.rent", "")
	v.SetDefault("household.size_policy", string(household.SizeFromNames))
	v.SetDefault("income.period", string(normalize.PeriodAnnual))
	v.SetDefault("schema.name", threshold.ThreeTier)
	v.SetDefault("schema.file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.rate_per_second", 2.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// FetchOptions converts the input section into reader options.
func (c *Config) FetchOptions() fetcher.Options {
	opts := fetcher.Options{
		HeaderRow: c.Input.HeaderRow,
		SheetName: c.Input.Sheet,
	}
	switch c.Input.Delimiter {
	case `\t`, "tab":
		opts.Delimiter = '\t'
	case "":
	default:
		opts.Delimiter = []rune(c.Input.Delimiter)[0]
	}
	return opts
}

// Registry returns the built-in schemas plus any loaded from Schema.File.
func (c *Config) Registry() (*threshold.Registry, error) {
	if c.Schema.File == "" {
		return threshold.NewRegistry(), nil
	}
	extra, err := threshold.LoadFile(c.Schema.File)
	if err != nil {
		return nil, eris.Wrap(err, "config: load schema file")
	}
	return threshold.NewRegistry(extra...), nil
}

// TrackerOptions resolves the pipeline options for a run. The schema is
// looked up in reg; a nil reg is built with Registry.
func (c *Config) TrackerOptions(reg *threshold.Registry) (tracker.Options, error) {
	policy, err := household.ParseSizePolicy(c.Household.SizePolicy)
	if err != nil {
		return tracker.Options{}, eris.Wrap(err, "config: household.size_policy")
	}
	period, err := normalize.ParsePeriod(c.Income.Period)
	if err != nil {
		return tracker.Options{}, eris.Wrap(err, "config: income.period")
	}
	if reg == nil {
		if reg, err = c.Registry(); err != nil {
			return tracker.Options{}, err
		}
	}
	schema, err := reg.Get(c.Schema.Name)
	if err != nil {
		return tracker.Options{}, eris.Wrap(err, "config: schema.name")
	}

	return tracker.Options{
		Columns:      c.Columns,
		SizePolicy:   policy,
		IncomePeriod: period,
		Schema:       schema,
	}, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks the settings a command mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Input.HeaderRow < 0 {
		problems = append(problems, "input.header_row must be >= 0")
	}
	if _, err := household.ParseSizePolicy(c.Household.SizePolicy); err != nil {
		problems = append(problems, "household.size_policy must be names or column")
	}
	if _, err := normalize.ParsePeriod(c.Income.Period); err != nil {
		problems = append(problems, "income.period must be annual or monthly")
	}
	if strings.TrimSpace(c.Schema.Name) == "" {
		problems = append(problems, "schema.name is required")
	}

	switch mode {
	case "process":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB <= 0 {
			problems = append(problems, "server.max_upload_mb must be > 0")
		}
		if c.Server.RatePerSecond <= 0 || c.Server.RateBurst < 1 {
			problems = append(problems, "server.rate_per_second must be > 0 and server.rate_burst >= 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
