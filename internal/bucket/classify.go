// Package bucket assigns income tiers to households and summarizes the
// result per tier.
package bucket

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-tracker/internal/model"
	"github.com/sells-group/compliance-tracker/internal/threshold"
)

// Classify returns the bucket label for a household. A declared size of 0
// on a vacancy-aware schema is always vacant; otherwise the first tier
// whose ceiling is at least the total income wins, and incomes above every
// ceiling get the schema's above label.
func Classify(h model.Household, s *threshold.Schema) (string, error) {
	if s.Vacancy && h.Size == 0 {
		return s.VacantLabel, nil
	}

	ceilings, err := s.Ceilings(h.Size)
	if err != nil {
		return "", eris.Wrapf(err, "bucket: classify unit %q", h.Unit)
	}
	for _, c := range ceilings {
		if h.TotalIncome <= c.Amount {
			return c.Tier, nil
		}
	}
	return s.AboveLabel, nil
}

// ClassifyAll returns copies of households with Bucket set.
func ClassifyAll(households []model.Household, s *threshold.Schema) ([]model.Household, error) {
	out := make([]model.Household, len(households))
	for i, h := range households {
		label, err := Classify(h, s)
		if err != nil {
			return nil, err
		}
		h.Bucket = label
		out[i] = h
	}
	return out, nil
}
