package threshold

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

// ErrInvalidSchema marks a tier schema or threshold table that cannot be
// used for classification.
var ErrInvalidSchema = eris.New("invalid threshold schema")

var nonAmountChars = regexp.MustCompile(`[^0-9.]`)

// Coerce turns an edited threshold cell into a dollar amount. Everything
// but digits and periods is stripped first; nil means it did not parse.
func Coerce(text string) *float64 {
	s := nonAmountChars.ReplaceAllString(text, "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Ceiling is the dollar cap of one tier for a household size.
type Ceiling struct {
	Tier   string  `json:"tier"`
	Amount float64 `json:"amount"`
}

// Table maps household size to one ceiling per tier, in tier order.
// Sizes are rows; tiers are columns.
type Table struct {
	tiers []string
	rows  map[int][]*float64
}

// NewTable creates an empty table for the given tier labels.
func NewTable(tiers []string) *Table {
	return &Table{
		tiers: append([]string(nil), tiers...),
		rows:  make(map[int][]*float64),
	}
}

// SetText stores a size row from raw cell text. Cells that fail to coerce
// are kept as nil and reported by Validate.
func (t *Table) SetText(size int, cells []string) {
	row := make([]*float64, len(cells))
	for i, c := range cells {
		row[i] = Coerce(c)
	}
	t.rows[size] = row
}

// Set stores a size row of known amounts.
func (t *Table) Set(size int, amounts []float64) {
	row := make([]*float64, len(amounts))
	for i := range amounts {
		v := amounts[i]
		row[i] = &v
	}
	t.rows[size] = row
}

// Tiers returns the tier labels in order.
func (t *Table) Tiers() []string {
	return append([]string(nil), t.tiers...)
}

// Sizes returns the defined household sizes in ascending order.
func (t *Table) Sizes() []int {
	sizes := make([]int, 0, len(t.rows))
	for s := range t.rows {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes
}

// Row returns the raw row for a defined size, or nil.
func (t *Table) Row(size int) []*float64 {
	return t.rows[size]
}

// key picks the row used for size. Sizes above the largest key reuse the
// largest row; sizes below the smallest reuse the smallest.
func (t *Table) key(size int) (int, bool) {
	if _, ok := t.rows[size]; ok {
		return size, true
	}
	sizes := t.Sizes()
	if len(sizes) == 0 {
		return 0, false
	}
	if size < sizes[0] {
		return sizes[0], true
	}
	return sizes[len(sizes)-1], true
}

// Ceilings returns the tier ceilings for a household size in tier order.
func (t *Table) Ceilings(size int) ([]Ceiling, error) {
	k, ok := t.key(size)
	if !ok {
		return nil, eris.Wrap(ErrInvalidSchema, "threshold: table has no rows")
	}
	row := t.rows[k]
	if len(row) != len(t.tiers) {
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: size %d has %d values for %d tiers", k, len(row), len(t.tiers))
	}

	out := make([]Ceiling, len(row))
	for i, v := range row {
		if v == nil {
			return nil, eris.Wrapf(ErrInvalidSchema, "threshold: size %d tier %q has no amount", k, t.tiers[i])
		}
		out[i] = Ceiling{Tier: t.tiers[i], Amount: *v}
	}
	return out, nil
}

// validate checks completeness and that ceilings never decrease across
// tiers. Sizes must run 1..N without gaps.
func (t *Table) validate() error {
	sizes := t.Sizes()
	if len(sizes) == 0 {
		return eris.Wrap(ErrInvalidSchema, "threshold: table has no rows")
	}
	for i, s := range sizes {
		if s != i+1 {
			return eris.Wrapf(ErrInvalidSchema, "threshold: household sizes must run 1..%d without gaps, found %v", len(sizes), sizes)
		}
	}

	for _, s := range sizes {
		ceilings, err := t.Ceilings(s)
		if err != nil {
			return err
		}
		for i := 1; i < len(ceilings); i++ {
			if ceilings[i].Amount < ceilings[i-1].Amount {
				return eris.Wrapf(ErrInvalidSchema, "threshold: size %d tier %q (%.2f) is below tier %q (%.2f)",
					s, ceilings[i].Tier, ceilings[i].Amount, ceilings[i-1].Tier, ceilings[i-1].Amount)
			}
		}
	}
	return nil
}
