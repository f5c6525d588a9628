// Package tracker runs the compliance pipeline over one roster table:
// normalize, aggregate by unit, classify against a tier schema, summarize.
package tracker

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-tracker/internal/bucket"
	"github.com/sells-group/compliance-tracker/internal/household"
	"github.com/sells-group/compliance-tracker/internal/model"
	"github.com/sells-group/compliance-tracker/internal/normalize"
	"github.com/sells-group/compliance-tracker/internal/threshold"
)

// Options is the full configuration of one run.
type Options struct {
	Columns      Columns
	SizePolicy   household.SizePolicy
	IncomePeriod normalize.IncomePeriod
	Schema       *threshold.Schema
	RunID        string // generated when empty
}

// Run processes a table and returns the classified households and the
// per-bucket summary. Configuration problems are reported before any row
// is touched.
func Run(t *model.Table, opts Options) (*model.Result, error) {
	if t == nil {
		return nil, eris.New("tracker: no input table")
	}
	if opts.Schema == nil {
		return nil, eris.Wrap(threshold.ErrInvalidSchema, "tracker: no schema selected")
	}
	if err := opts.Schema.Validate(); err != nil {
		return nil, eris.Wrap(err, "tracker: validate schema")
	}
	if opts.SizePolicy == "" {
		opts.SizePolicy = household.SizeFromNames
	}
	if opts.IncomePeriod == "" {
		opts.IncomePeriod = normalize.PeriodAnnual
	}
	if err := opts.Columns.Validate(t, opts.SizePolicy); err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := zap.L().With(zap.String("run_id", runID), zap.String("schema", opts.Schema.Name))

	rows, stats := normalize.Rows(opts.Columns.Extract(t), opts.IncomePeriod)
	log.Debug("tracker: rows normalized",
		zap.Int("rows_read", t.Len()),
		zap.Int("rows_dropped", stats.Dropped),
		zap.Int("unparsed_incomes", stats.UnparsedIncomes),
	)

	households := household.Aggregate(rows, opts.SizePolicy)
	classified, err := bucket.ClassifyAll(households, opts.Schema)
	if err != nil {
		return nil, err
	}

	result := &model.Result{
		RunID:   runID,
		Schema:  opts.Schema.Name,
		Details: classified,
		Summary: bucket.Summarize(classified, opts.Schema),
		Stats: model.RunStats{
			RowsRead:        t.Len(),
			RowsDropped:     stats.Dropped,
			UnparsedIncomes: stats.UnparsedIncomes,
			Households:      len(classified),
		},
	}

	log.Info("tracker: run complete",
		zap.Int("households", len(classified)),
		zap.String("size_policy", string(opts.SizePolicy)),
		zap.String("income_period", string(opts.IncomePeriod)),
	)
	return result, nil
}
