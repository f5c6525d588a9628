package tracker

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-tracker/internal/household"
	"github.com/sells-group/compliance-tracker/internal/model"
)

// ErrColumnMapping marks a column-role mapping that does not fit the table.
var ErrColumnMapping = eris.New("invalid column mapping")

// Column roles.
const (
	RoleUnit          = "unit"
	RoleResident      = "resident"
	RoleIncome        = "income"
	RoleHouseholdSize = "household_size"
	RoleRent          = "rent"
)

// Columns maps each role to a header name in the input table. Rent is
// accepted for completeness but never read.
type Columns struct {
	Unit          string `json:"unit" mapstructure:"unit"`
	Resident      string `json:"resident" mapstructure:"resident"`
	Income        string `json:"income" mapstructure:"income"`
	HouseholdSize string `json:"household_size,omitempty" mapstructure:"household_size"`
	Rent          string `json:"rent,omitempty" mapstructure:"rent"`
}

// Validate checks that every required role is mapped and every mapped
// column exists. The household-size role is required by the column policy.
func (c Columns) Validate(t *model.Table, policy household.SizePolicy) error {
	roles := []struct {
		role     string
		column   string
		required bool
	}{
		{RoleUnit, c.Unit, true},
		{RoleResident, c.Resident, true},
		{RoleIncome, c.Income, true},
		{RoleHouseholdSize, c.HouseholdSize, policy == household.SizeFromColumn},
		{RoleRent, c.Rent, false},
	}

	for _, r := range roles {
		name := strings.TrimSpace(r.column)
		if name == "" {
			if r.required {
				return eris.Wrapf(ErrColumnMapping, "tracker: column role %q is not mapped", r.role)
			}
			continue
		}
		if !t.HasColumn(name) {
			return eris.Wrapf(ErrColumnMapping, "tracker: column %q for role %q not found (have %s)",
				name, r.role, strings.Join(t.Columns, ", "))
		}
	}
	return nil
}

// Extract pulls the mapped roles out of every table row.
func (c Columns) Extract(t *model.Table) []model.RawRow {
	rows := make([]model.RawRow, t.Len())
	for i := range rows {
		rows[i] = model.RawRow{
			Unit:     t.Cell(i, c.Unit),
			Resident: t.Cell(i, c.Resident),
			Income:   t.Cell(i, c.Income),
		}
		if c.HouseholdSize != "" {
			rows[i].HouseholdSize = t.Cell(i, c.HouseholdSize)
		}
	}
	return rows
}
