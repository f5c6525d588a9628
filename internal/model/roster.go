package model

// RawRow is one roster record as it came out of the ingested table.
type RawRow struct {
	Unit          string `json:"unit"`
	Resident      string `json:"resident"`
	Income        string `json:"income"`
	HouseholdSize string `json:"household_size,omitempty"`
}

// NormalizedRow is a RawRow after field cleaning. Income is nil when the
// source cell could not be parsed.
type NormalizedRow struct {
	Unit          string   `json:"unit"`
	Resident      string   `json:"resident"`
	Income        *float64 `json:"income"`
	HouseholdSize int      `json:"household_size"`
	HasSizeHint   bool     `json:"has_size_hint"`
}

// Household is the per-unit aggregate. Bucket is attached once after
// classification.
type Household struct {
	Unit        string  `json:"unit"`
	Residents   string  `json:"residents"`
	TotalIncome float64 `json:"total_income"`
	Size        int     `json:"size"`
	Bucket      string  `json:"bucket"`
}

// BucketSummary is one row of the summary table.
type BucketSummary struct {
	Label       string  `json:"label"`
	Units       int     `json:"units"`
	Residents   int     `json:"residents"`
	TotalIncome float64 `json:"total_income"`
}

// RunStats counts what happened to input rows during a run.
type RunStats struct {
	RowsRead        int `json:"rows_read"`
	RowsDropped     int `json:"rows_dropped"`
	UnparsedIncomes int `json:"unparsed_incomes"`
	Households      int `json:"households"`
}

// Result is the immutable output of a single run.
type Result struct {
	RunID   string          `json:"run_id"`
	Schema  string          `json:"schema"`
	Details []Household     `json:"details"`
	Summary []BucketSummary `json:"summary"`
	Stats   RunStats        `json:"stats"`
}
