package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-tracker/internal/household"
	"github.com/sells-group/compliance-tracker/internal/normalize"
	"github.com/sells-group/compliance-tracker/internal/threshold"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Input.HeaderRow)
	assert.Equal(t, "Unit", cfg.Columns.Unit)
	assert.Equal(t, "Resident Name", cfg.Columns.Resident)
	assert.Equal(t, "Annual Income", cfg.Columns.Income)
	assert.Empty(t, cfg.Columns.HouseholdSize)
	assert.Equal(t, "names", cfg.Household.SizePolicy)
	assert.Equal(t, "annual", cfg.Income.Period)
	assert.Equal(t, threshold.ThreeTier, cfg.Schema.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.MaxUploadMB)
	assert.InDelta(t, 2.0, cfg.Server.RatePerSecond, 0.001)
	assert.Equal(t, 5, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
input:
  header_row: 6
columns:
  unit: Apt
  resident: Tenant(s)
  income: Monthly Income
  household_size: HH Size
household:
  size_policy: column
income:
  period: monthly
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Input.HeaderRow)
	assert.Equal(t, "Apt", cfg.Columns.Unit)
	assert.Equal(t, "Tenant(s)", cfg.Columns.Resident)
	assert.Equal(t, "HH Size", cfg.Columns.HouseholdSize)
	assert.Equal(t, "column", cfg.Household.SizePolicy)
	assert.Equal(t, "monthly", cfg.Income.Period)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))
	t.Setenv("COMPLIANCE_LOG_LEVEL", "warn")
	t.Setenv("COMPLIANCE_SCHEMA_NAME", "legacy")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "legacy", cfg.Schema.Name)
}

func TestLoadBadFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unterminated"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadFrom_ExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("schema:\n  name: ignored\n"), 0o644))
	path := filepath.Join(t.TempDir(), "site.yml")
	require.NoError(t, os.WriteFile(path, []byte("schema:\n  name: legacy\n"), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Schema.Name)
	assert.Equal(t, "Unit", cfg.Columns.Unit)

	_, err = LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Household.SizePolicy = "names"
	cfg.Income.Period = "annual"
	cfg.Schema.Name = threshold.ThreeTier
	cfg.Server.Port = 8080
	cfg.Server.MaxUploadMB = 20
	cfg.Server.RatePerSecond = 2
	cfg.Server.RateBurst = 5
	return cfg
}

func TestValidateProcess(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("process"))

	cfg := validDefaults()
	cfg.Input.HeaderRow = -1
	cfg.Household.SizePolicy = "guess"
	cfg.Income.Period = "weekly"
	cfg.Schema.Name = ""

	err := cfg.Validate("process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.header_row must be >= 0")
	assert.Contains(t, err.Error(), "household.size_policy")
	assert.Contains(t, err.Error(), "income.period")
	assert.Contains(t, err.Error(), "schema.name is required")
}

func TestValidateServe(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))

	cfg := validDefaults()
	cfg.Server.Port = 0
	cfg.Server.RateBurst = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.Contains(t, err.Error(), "server.rate_burst")

	// Server settings do not matter for process.
	assert.NoError(t, cfg.Validate("process"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestFetchOptions(t *testing.T) {
	cfg := validDefaults()
	cfg.Input.HeaderRow = 6
	cfg.Input.Sheet = "Rent Roll"

	opts := cfg.FetchOptions()
	assert.Equal(t, 6, opts.HeaderRow)
	assert.Equal(t, "Rent Roll", opts.SheetName)
	assert.Equal(t, rune(0), opts.Delimiter)

	cfg.Input.Delimiter = "tab"
	assert.Equal(t, '\t', cfg.FetchOptions().Delimiter)
	cfg.Input.Delimiter = ";"
	assert.Equal(t, ';', cfg.FetchOptions().Delimiter)
}

func TestTrackerOptions(t *testing.T) {
	cfg := validDefaults()
	cfg.Household.SizePolicy = "column"
	cfg.Income.Period = "monthly"
	cfg.Columns.Unit = "Unit"

	opts, err := cfg.TrackerOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, household.SizeFromColumn, opts.SizePolicy)
	assert.Equal(t, normalize.PeriodMonthly, opts.IncomePeriod)
	assert.Equal(t, threshold.ThreeTier, opts.Schema.Name)
	assert.Equal(t, "Unit", opts.Columns.Unit)
}

func TestTrackerOptions_UnknownSchema(t *testing.T) {
	cfg := validDefaults()
	cfg.Schema.Name = "nope"

	_, err := cfg.TrackerOptions(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, threshold.ErrInvalidSchema))
}

func TestTrackerOptions_SchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schemas:
  - name: county
    source: ami
    ami: 85000
    tiers:
      - percent: 50
`), 0o644))

	cfg := validDefaults()
	cfg.Schema.File = path
	cfg.Schema.Name = "county"

	opts, err := cfg.TrackerOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "county", opts.Schema.Name)

	cfg.Schema.File = filepath.Join(dir, "missing.yaml")
	_, err = cfg.TrackerOptions(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load schema file")
}

func TestTrackerOptions_UsesGivenRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schemas:
  - name: county
    source: ami
    ami: 85000
    tiers:
      - percent: 50
`), 0o644))

	cfg := validDefaults()
	cfg.Schema.File = path
	cfg.Schema.Name = "county"

	reg, err := cfg.Registry()
	require.NoError(t, err)
	served, err := reg.Get("county")
	require.NoError(t, err)

	opts, err := cfg.TrackerOptions(reg)
	require.NoError(t, err)
	assert.Same(t, served, opts.Schema)

	// The file is not read again once a registry is supplied.
	require.NoError(t, os.Remove(path))
	opts, err = cfg.TrackerOptions(reg)
	require.NoError(t, err)
	assert.Same(t, served, opts.Schema)
}
