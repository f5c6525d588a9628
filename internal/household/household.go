// Package household groups normalized roster rows into one record per unit.
package household

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-tracker/internal/model"
)

// SizePolicy selects where a household's size comes from. The two
// policies are exclusive for a run.
type SizePolicy string

const (
	// SizeFromNames counts the residents listed for the unit.
	SizeFromNames SizePolicy = "names"
	// SizeFromColumn uses the mapped household-size column.
	SizeFromColumn SizePolicy = "column"
)

// ParseSizePolicy parses a configured size policy. Empty means SizeFromNames.
func ParseSizePolicy(s string) (SizePolicy, error) {
	switch SizePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SizeFromNames:
		return SizeFromNames, nil
	case SizeFromColumn:
		return SizeFromColumn, nil
	default:
		return "", eris.Errorf("household: unknown size policy %q", s)
	}
}

const nameSep = ", "

// NameCount is the names-policy household size for a joined resident
// string. An empty string still counts as one.
func NameCount(residents string) int {
	if strings.TrimSpace(residents) == "" {
		return 1
	}
	return len(strings.Split(residents, ","))
}

type group struct {
	names    []string
	income   float64
	size     int
	sizeSeen bool
}

// Aggregate returns exactly one Household per distinct unit, in the order
// units first appear. Unit ids match exactly. Nil incomes add nothing.
func Aggregate(rows []model.NormalizedRow, policy SizePolicy) []model.Household {
	groups := make(map[string]*group)
	var order []string

	for _, r := range rows {
		g, ok := groups[r.Unit]
		if !ok {
			g = &group{}
			groups[r.Unit] = g
			order = append(order, r.Unit)
		}

		if r.Resident != "" {
			g.names = append(g.names, r.Resident)
		}
		if r.Income != nil {
			g.income += *r.Income
		}
		if r.HasSizeHint && !g.sizeSeen {
			g.size = r.HouseholdSize
			g.sizeSeen = true
		}
	}

	out := make([]model.Household, 0, len(order))
	for _, unit := range order {
		g := groups[unit]
		h := model.Household{
			Unit:        unit,
			Residents:   strings.Join(g.names, nameSep),
			TotalIncome: g.income,
		}

		switch {
		case policy != SizeFromColumn:
			h.Size = NameCount(h.Residents)
		case g.sizeSeen:
			h.Size = g.size
		default:
			h.Size = 1
		}

		out = append(out, h)
	}
	return out
}
