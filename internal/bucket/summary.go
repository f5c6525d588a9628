package bucket

import (
	"github.com/sells-group/compliance-tracker/internal/model"
	"github.com/sells-group/compliance-tracker/internal/threshold"
)

// Summarize counts households per bucket. The result has one row for every
// label of the schema in canonical order, including empty buckets.
func Summarize(households []model.Household, s *threshold.Schema) []model.BucketSummary {
	labels := s.Labels()
	out := make([]model.BucketSummary, len(labels))
	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		out[i] = model.BucketSummary{Label: l}
		pos[l] = i
	}

	for _, h := range households {
		i, ok := pos[h.Bucket]
		if !ok {
			continue
		}
		out[i].Units++
		out[i].Residents += h.Size
		out[i].TotalIncome += h.TotalIncome
	}
	return out
}
