// Package normalize cleans raw roster cells into typed values.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/compliance-tracker/internal/model"
)

// IncomePeriod says what span of time an income cell covers.
type IncomePeriod string

const (
	PeriodAnnual  IncomePeriod = "annual"
	PeriodMonthly IncomePeriod = "monthly"
)

// ParsePeriod parses a configured income period. Empty means annual.
func ParsePeriod(s string) (IncomePeriod, error) {
	switch IncomePeriod(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodAnnual:
		return PeriodAnnual, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	default:
		return "", eris.Errorf("normalize: unknown income period %q", s)
	}
}

// Multiplier converts one period's income into an annual figure.
func (p IncomePeriod) Multiplier() float64 {
	if p == PeriodMonthly {
		return 12
	}
	return 1
}

var (
	currencyChars = strings.NewReplacer("$", "", ",", "")
	nonWordChars  = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
)

// Income parses a currency cell such as "$1,234.56". Cells that do not
// parse return nil so the row still aggregates with a zero contribution.
func Income(raw string) *float64 {
	s := strings.TrimSpace(currencyChars.Replace(raw))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// PrimaryResident returns the first non-blank line of a resident cell.
func PrimaryResident(raw string) string {
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Name turns a resident cell into a display name: "SMITH, john" becomes
// "John Smith". Only the primary resident of a multi-line cell is kept.
func Name(raw string) string {
	s := PrimaryResident(raw)
	if i := strings.Index(s, ","); i >= 0 {
		surname := strings.TrimSpace(s[:i])
		given := strings.TrimSpace(s[i+1:])
		s = given + " " + surname
	}
	s = nonWordChars.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

// HouseholdSize reads a household-size cell. "vacant" in any case is 0, a
// non-negative whole number is returned as-is, and anything else is 1.
func HouseholdSize(raw string) int {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "vacant") {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 {
			return n
		}
		return 1
	}
	// Spreadsheet cells often render whole numbers as "2.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= math.MaxInt32 && f == math.Trunc(f) {
		return int(f)
	}
	return 1
}

// Stats describes what Rows did with its input.
type Stats struct {
	Dropped         int
	UnparsedIncomes int
}

// Rows normalizes raw rows in order. Rows whose unit is blank after trimming
// are dropped. Incomes are scaled to annual figures for the given period.
func Rows(raw []model.RawRow, period IncomePeriod) ([]model.NormalizedRow, Stats) {
	var stats Stats
	mul := period.Multiplier()

	out := make([]model.NormalizedRow, 0, len(raw))
	for _, r := range raw {
		unit := strings.TrimSpace(r.Unit)
		if unit == "" {
			stats.Dropped++
			continue
		}

		income := Income(r.Income)
		if income == nil {
			stats.UnparsedIncomes++
		} else {
			annual := *income * mul
			income = &annual
		}

		out = append(out, model.NormalizedRow{
			Unit:          unit,
			Resident:      Name(r.Resident),
			Income:        income,
			HouseholdSize: HouseholdSize(r.HouseholdSize),
			HasSizeHint:   strings.TrimSpace(r.HouseholdSize) != "",
		})
	}
	return out, stats
}
