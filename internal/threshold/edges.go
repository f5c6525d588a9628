package threshold

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// FromEdges builds an AMI schema from comma-separated fractional edges and
// bucket labels, e.g. edges "0,0.3,0.5,0.8,1.0,9.9" with five labels. The
// first edge must be 0 and each later edge caps the matching label.
func FromEdges(name string, ami float64, edges, labels string) (*Schema, error) {
	if ami <= 0 {
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: area median income must be positive, got %v", ami)
	}

	var bounds []float64
	for _, part := range strings.Split(edges, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidSchema, "threshold: bad edge %q", part)
		}
		bounds = append(bounds, v)
	}

	var names []string
	for _, l := range strings.Split(labels, ",") {
		names = append(names, strings.TrimSpace(l))
	}

	if len(bounds) < 2 {
		return nil, eris.Wrap(ErrInvalidSchema, "threshold: need at least two edges")
	}
	if len(names) != len(bounds)-1 {
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: number of labels (%d) must be exactly one less than number of edges (%d)", len(names), len(bounds))
	}
	if bounds[0] != 0 {
		return nil, eris.Wrapf(ErrInvalidSchema, "threshold: first edge must be 0, got %v", bounds[0])
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return nil, eris.Wrapf(ErrInvalidSchema, "threshold: edges must increase, got %v", bounds)
		}
	}

	tiers := make([]Tier, len(names))
	for i, n := range names {
		tiers[i] = Tier{Label: n, Percent: math.Round(bounds[i+1]*100*1e6) / 1e6}
	}
	return NewAMISchema(name, ami, tiers, false), nil
}
