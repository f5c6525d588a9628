// Package threshold holds income tier schemas and the per-household-size
// dollar ceilings they classify against.
package threshold

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultVacantLabel is used when a vacancy-aware schema names no label.
const DefaultVacantLabel = "Vacant"

// Tier is one named percentage-of-median band.
type Tier struct {
	Label   string  `yaml:"label" json:"label"`
	Percent float64 `yaml:"percent" json:"percent"`
}

// Schema is a complete bucket configuration: ordered tiers, the label for
// incomes above the top tier, optional vacancy support and the ceilings.
type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Tiers       []Tier  `json:"tiers"`
	AboveLabel  string  `json:"above_label"`
	Vacancy     bool    `json:"vacancy"`
	VacantLabel string  `json:"vacant_label,omitempty"`
	AMI         float64 `json:"ami,omitempty"`
	Table       *Table  `json:"-"`
}

// FormatPercent renders 30 as "30" and 62.5 as "62.5".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// DefaultLabels names tiers from their percentages: "≤30% AMI",
// "30–60% AMI" and so on, plus the above-top label.
func DefaultLabels(percents []float64) (tiers []string, above string) {
	tiers = make([]string, len(percents))
	for i, p := range percents {
		if i == 0 {
			tiers[i] = "≤" + FormatPercent(p) + "% AMI"
			continue
		}
		tiers[i] = FormatPercent(percents[i-1]) + "–" + FormatPercent(p) + "% AMI"
	}
	if len(percents) > 0 {
		above = ">" + FormatPercent(percents[len(percents)-1]) + "% AMI"
	}
	return tiers, above
}

// fillLabels assigns default labels to any tier or above label left blank.
func (s *Schema) fillLabels() {
	percents := make([]float64, len(s.Tiers))
	for i, t := range s.Tiers {
		percents[i] = t.Percent
	}
	tiers, above := DefaultLabels(percents)
	for i := range s.Tiers {
		if strings.TrimSpace(s.Tiers[i].Label) == "" {
			s.Tiers[i].Label = tiers[i]
		}
	}
	if strings.TrimSpace(s.AboveLabel) == "" {
		s.AboveLabel = above
	}
	if s.Vacancy && strings.TrimSpace(s.VacantLabel) == "" {
		s.VacantLabel = DefaultVacantLabel
	}
}

func (s *Schema) tierLabels() []string {
	labels := make([]string, len(s.Tiers))
	for i, t := range s.Tiers {
		labels[i] = t.Label
	}
	return labels
}

// Labels returns every bucket label in canonical display order: tiers,
// then the above label, then the vacant label when supported.
func (s *Schema) Labels() []string {
	labels := append(s.tierLabels(), s.AboveLabel)
	if s.Vacancy {
		labels = append(labels, s.VacantLabel)
	}
	return labels
}

// Ceilings resolves the tier ceilings for a household size.
func (s *Schema) Ceilings(size int) ([]Ceiling, error) {
	if s.Table == nil {
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: schema %q has no ceilings", s.Name)
	}
	return s.Table.Ceilings(size)
}

// Validate reports any reason the schema cannot classify households.
func (s *Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return eris.Wrap(ErrInvalidSchema, "threshold: schema name is required")
	}
	if len(s.Tiers) == 0 {
		return eris.Wrapf(ErrInvalidSchema, "threshold: schema %q has no tiers", s.Name)
	}

	seen := make(map[string]bool)
	for _, l := range s.Labels() {
		if strings.TrimSpace(l) == "" {
			return eris.Wrapf(ErrInvalidSchema, "threshold: schema %q has a blank label", s.Name)
		}
		if seen[l] {
			return eris.Wrapf(ErrInvalidSchema, "threshold: schema %q repeats label %q", s.Name, l)
		}
		seen[l] = true
	}

	for i := 1; i < len(s.Tiers); i++ {
		if s.Tiers[i].Percent < s.Tiers[i-1].Percent {
			return eris.Wrapf(ErrInvalidSchema, "threshold: schema %q tier %q percent is below the previous tier", s.Name, s.Tiers[i].Label)
		}
	}

	if s.Table == nil {
		return eris.Wrapf(ErrInvalidSchema, "threshold: schema %q has no ceilings", s.Name)
	}
	if got := len(s.Table.Tiers()); got != len(s.Tiers) {
		return eris.Wrapf(ErrInvalidSchema, "threshold: schema %q table has %d tiers, want %d", s.Name, got, len(s.Tiers))
	}
	if err := s.Table.validate(); err != nil {
		return eris.Wrapf(err, "threshold: schema %q", s.Name)
	}
	return nil
}

// NewTableSchema builds a schema whose ceilings come from a per-size grid.
// rows[size] lists raw cell text in tier order.
func NewTableSchema(name string, tiers []Tier, vacancy bool, rows map[int][]string) *Schema {
	s := &Schema{
		Name:    name,
		Tiers:   append([]Tier(nil), tiers...),
		Vacancy: vacancy,
	}
	s.fillLabels()

	s.Table = NewTable(s.tierLabels())
	for size, cells := range rows {
		s.Table.SetText(size, cells)
	}
	return s
}

// NewAMISchema builds a schema whose ceilings are percentages of one area
// median income, identical for every household size.
func NewAMISchema(name string, ami float64, tiers []Tier, vacancy bool) *Schema {
	s := &Schema{
		Name:    name,
		Tiers:   append([]Tier(nil), tiers...),
		Vacancy: vacancy,
		AMI:     ami,
	}
	s.fillLabels()

	amounts := make([]float64, len(s.Tiers))
	for i, t := range s.Tiers {
		amounts[i] = ami * t.Percent / 100
	}
	s.Table = NewTable(s.tierLabels())
	s.Table.Set(1, amounts)
	return s
}
