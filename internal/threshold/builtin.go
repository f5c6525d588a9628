package threshold

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Built-in schema names.
const (
	ThreeTier = "three-tier"
	Legacy    = "legacy"
)

// ThreeTierSchema is the 30/60/80 schema with vacancy support and the
// default ceilings for household sizes 1 through 5.
func ThreeTierSchema() *Schema {
	s := NewTableSchema(ThreeTier, []Tier{{Percent: 30}, {Percent: 60}, {Percent: 80}}, true, map[int][]string{
		1: {"19860", "39720", "52960"},
		2: {"22710", "45420", "60560"},
		3: {"25530", "51060", "68080"},
		4: {"28380", "56760", "75680"},
		5: {"30660", "61320", "81760"},
	})
	s.Description = "30/60/80% AMI ceilings by household size, vacant units reported separately"
	return s
}

// LegacySchema is the 50/80/120 schema measured against a single area
// median income of $100,000. It has no vacancy bucket.
func LegacySchema() *Schema {
	s := NewAMISchema(Legacy, 100000, []Tier{{Percent: 50}, {Percent: 80}, {Percent: 120}}, false)
	s.Description = "50/80/120% of a single area median income"
	return s
}

// Registry holds schemas by name.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry returns a registry with the built-in schemas plus extra.
// Extra schemas replace built-ins of the same name.
func NewRegistry(extra ...*Schema) *Registry {
	r := &Registry{schemas: make(map[string]*Schema)}
	r.Add(ThreeTierSchema())
	r.Add(LegacySchema())
	for _, s := range extra {
		r.Add(s)
	}
	return r
}

// Add stores s under its name.
func (r *Registry) Add(s *Schema) {
	r.schemas[s.Name] = s
}

// Get looks up a schema by name.
func (r *Registry) Get(name string) (*Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: unknown schema %q (have %v)", name, r.Names())
	}
	return s, nil
}

// Names returns the registered schema names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
