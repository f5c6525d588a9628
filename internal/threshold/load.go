package threshold

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Orientations accepted for a ceilings grid.
const (
	OrientSizes = "sizes" // keys are household sizes, values follow tier order
	OrientTiers = "tiers" // keys are tier labels, values follow sizes 1..N
)

// Source kinds for a schema's ceilings.
const (
	SourceTable = "table"
	SourceAMI   = "ami"
	SourceEdges = "edges"
)

// fileSchema is the YAML shape of one schema entry.
type fileSchema struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Source      string    `yaml:"source"`
	Vacancy     bool      `yaml:"vacancy"`
	VacantLabel string    `yaml:"vacant_label"`
	AboveLabel  string    `yaml:"above_label"`
	Tiers       []Tier    `yaml:"tiers"`
	AMI         string    `yaml:"ami"`
	Edges       string    `yaml:"edges"`
	Labels      string    `yaml:"labels"`
	Orientation string    `yaml:"orientation"`
	Ceilings    yaml.Node `yaml:"ceilings"`
}

// LoadFile reads schemas from a YAML file with a top-level "schemas" list.
// Every schema is validated.
func LoadFile(path string) ([]*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "threshold: read schema file %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates schemas from YAML.
func Parse(data []byte) ([]*Schema, error) {
	var wrapper struct {
		Schemas []fileSchema `yaml:"schemas"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "threshold: parse schema file")
	}
	if len(wrapper.Schemas) == 0 {
		return nil, eris.Wrap(ErrInvalidSchema, "threshold: schema file defines no schemas")
	}

	out := make([]*Schema, 0, len(wrapper.Schemas))
	for _, fs := range wrapper.Schemas {
		s, err := fs.build()
		if err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (fs fileSchema) build() (*Schema, error) {
	var s *Schema
	switch strings.ToLower(strings.TrimSpace(fs.Source)) {
	case "", SourceTable:
		grid, err := ParseGrid(&fs.Ceilings, fs.Orientation, fs.Tiers)
		if err != nil {
			return nil, eris.Wrapf(err, "threshold: schema %q", fs.Name)
		}
		s = NewTableSchema(fs.Name, fs.Tiers, fs.Vacancy, grid)
	case SourceAMI:
		ami := Coerce(fs.AMI)
		if ami == nil || *ami <= 0 {
			return nil, eris.Wrapf(ErrInvalidSchema, "threshold: schema %q needs a positive ami, got %q", fs.Name, fs.AMI)
		}
		s = NewAMISchema(fs.Name, *ami, fs.Tiers, fs.Vacancy)
	case SourceEdges:
		ami := Coerce(fs.AMI)
		if ami == nil {
			return nil, eris.Wrapf(ErrInvalidSchema, "threshold: schema %q needs an ami, got %q", fs.Name, fs.AMI)
		}
		var err error
		if s, err = FromEdges(fs.Name, *ami, fs.Edges, fs.Labels); err != nil {
			return nil, err
		}
		s.Vacancy = fs.Vacancy
	default:
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: schema %q has unknown source %q", fs.Name, fs.Source)
	}

	s.Description = fs.Description
	if fs.AboveLabel != "" {
		s.AboveLabel = fs.AboveLabel
	}
	if fs.VacantLabel != "" {
		s.VacantLabel = fs.VacantLabel
	}
	s.fillLabels()
	return s, nil
}

// ParseGrid reads a ceilings mapping into rows keyed by household size.
// With OrientTiers the keys are tier labels (or percentages) and each list
// runs over household sizes starting at 1.
func ParseGrid(node *yaml.Node, orientation string, tiers []Tier) (map[int][]string, error) {
	if node == nil || node.Kind == 0 {
		return nil, eris.Wrap(ErrInvalidSchema, "threshold: ceilings are required")
	}
	if node.Kind != yaml.MappingNode {
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: ceilings must be a mapping (line %d)", node.Line)
	}

	entries := make(map[string][]string, len(node.Content)/2)
	var keys []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			return nil, eris.Wrapf(ErrInvalidSchema, "threshold: ceilings %q must be a list (line %d)", key.Value, val.Line)
		}
		cells := make([]string, len(val.Content))
		for j, c := range val.Content {
			cells[j] = c.Value
		}
		entries[key.Value] = cells
		keys = append(keys, key.Value)
	}

	switch strings.ToLower(strings.TrimSpace(orientation)) {
	case "", OrientSizes:
		rows := make(map[int][]string, len(entries))
		for _, k := range keys {
			size, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil || size < 1 {
				return nil, eris.Wrapf(ErrInvalidSchema, "threshold: household size key %q is not a positive integer", k)
			}
			rows[size] = entries[k]
		}
		return rows, nil
	case OrientTiers:
		return transpose(entries, tiers)
	default:
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: unknown orientation %q", orientation)
	}
}

// transpose turns tier-keyed columns into size-keyed rows. A tier is found
// by its label or by its percentage written as "30" or "30%".
func transpose(entries map[string][]string, tiers []Tier) (map[int][]string, error) {
	labels, _ := DefaultLabels(percents(tiers))
	rows := make(map[int][]string)
	for ti, tier := range tiers {
		col, ok := findColumn(entries, tier, labels[ti])
		if !ok {
			return nil, eris.Wrapf(ErrInvalidSchema, "threshold: no ceilings for tier %s%%", FormatPercent(tier.Percent))
		}
		for si, cell := range col {
			size := si + 1
			if rows[size] == nil {
				rows[size] = make([]string, len(tiers))
			}
			rows[size][ti] = cell
		}
	}
	return rows, nil
}

func findColumn(entries map[string][]string, tier Tier, defaultLabel string) ([]string, bool) {
	pct := FormatPercent(tier.Percent)
	for _, k := range []string{tier.Label, defaultLabel, pct, pct + "%"} {
		if k == "" {
			continue
		}
		if col, ok := entries[k]; ok {
			return col, true
		}
	}
	return nil, false
}

func percents(tiers []Tier) []float64 {
	out := make([]float64, len(tiers))
	for i, t := range tiers {
		out[i] = t.Percent
	}
	return out
}
