package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-tracker/internal/config"
	"github.com/sells-group/compliance-tracker/internal/export"
	"github.com/sells-group/compliance-tracker/internal/fetcher"
	"github.com/sells-group/compliance-tracker/internal/model"
	"github.com/sells-group/compliance-tracker/internal/tracker"
)

var (
	processFile       string
	processOutput     string
	processSchema     string
	processHeaderRow  int
	processSizePolicy string
	processPeriod     string
	processUnitCol    string
	processNameCol    string
	processIncomeCol  string
	processSizeCol    string
	processRentCol    string
	processQuiet      bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Classify a roster file and print the details and summary tables",
	Long: `Reads a CSV or XLSX roster, groups residents by unit, and assigns each
household an income bucket.

Examples:
  # Default three-tier schema, annual income column
  compliance-tracker process --file roster.xlsx --header-row 6

  # Monthly income column, sizes from a household-size column, export workbook
  compliance-tracker process --file roster.csv --income-period monthly \
    --size-policy column --size-col "HH Size" --output results.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyProcessFlags(cmd, cfg)
		if err := cfg.Validate("process"); err != nil {
			return err
		}

		table, err := fetcher.ReadTable(processFile, cfg.FetchOptions())
		if err != nil {
			return eris.Wrap(err, "process: read roster")
		}
		zap.L().Info("read roster", zap.String("file", processFile), zap.Int("rows", table.Len()))

		res, err := runProcess(cfg, table)
		if err != nil {
			return err
		}

		if !processQuiet {
			printResult(cmd.OutOrStdout(), res)
		}

		if processOutput != "" {
			written, err := export.WriteFile(processOutput, res)
			if err != nil {
				return err
			}
			zap.L().Info("results written", zap.Strings("files", written))
		}
		return nil
	},
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processFile, "file", "", "roster file to read, .csv or .xlsx (required)")
	f.StringVar(&processOutput, "output", "", "write results to .xlsx (Details + Summary sheets) or .csv")
	f.StringVar(&processSchema, "schema", "", "tier schema name (default from config)")
	f.IntVar(&processHeaderRow, "header-row", 0, "zero-based row holding the column titles")
	f.StringVar(&processSizePolicy, "size-policy", "", "household size from resident names or a size column: names|column")
	f.StringVar(&processPeriod, "income-period", "", "income column period: annual|monthly")
	f.StringVar(&processUnitCol, "unit-col", "", "unit column name")
	f.StringVar(&processNameCol, "resident-col", "", "resident name(s) column name")
	f.StringVar(&processIncomeCol, "income-col", "", "income column name")
	f.StringVar(&processSizeCol, "size-col", "", "household size column name")
	f.StringVar(&processRentCol, "rent-col", "", "rent column name (accepted, not used)")
	f.BoolVar(&processQuiet, "quiet", false, "do not print tables")
	_ = processCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(processCmd)
}

// applyProcessFlags layers explicitly set flags over the loaded config.
func applyProcessFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("header-row") {
		c.Input.HeaderRow = processHeaderRow
	}
	overrides := []struct {
		flag string
		val  string
		dst  *string
	}{
		{"schema", processSchema, &c.Schema.Name},
		{"size-policy", processSizePolicy, &c.Household.SizePolicy},
		{"income-period", processPeriod, &c.Income.Period},
		{"unit-col", processUnitCol, &c.Columns.Unit},
		{"resident-col", processNameCol, &c.Columns.Resident},
		{"income-col", processIncomeCol, &c.Columns.Income},
		{"size-col", processSizeCol, &c.Columns.HouseholdSize},
		{"rent-col", processRentCol, &c.Columns.Rent},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst = o.val
		}
	}
}

// runProcess resolves the configured pipeline options and runs one table.
func runProcess(c *config.Config, table *model.Table) (*model.Result, error) {
	opts, err := c.TrackerOptions(nil)
	if err != nil {
		return nil, err
	}
	res, err := tracker.Run(table, opts)
	if err != nil {
		return nil, eris.Wrap(err, "process: run")
	}
	return res, nil
}
