package scoring

import "fmt"

// Variant names one of the two rubric weightings that exist in the product.
// They diverge on the desirable/experience split; which one is authoritative
// is an open product question, so both are kept as first-class options and
// selected per call.
type Variant string

const (
	// VariantStandard weights mandatory 50 / desirable 25 / experience 25.
	VariantStandard Variant = "standard"
	// VariantStrict weights mandatory 50 / desirable 30 / experience 20 and
	// spells out a knock-out/partial condition taxonomy in the prompt.
	VariantStrict Variant = "strict"
)

// HardCap is the ceiling applied to the final score whenever at least one
// mandatory condition is unmet, regardless of points earned elsewhere.
const HardCap = 49

// Weights is one rubric's point distribution. Experience splits into three
// capped sub-scores.
type Weights struct {
	Mandatory  int
	Desirable  int
	Experience int

	// Experience sub-caps; they sum to Experience.
	RoleAlignment int
	Impact        int
	SoftSkills    int
}

func (v Variant) Weights() Weights {
	switch v {
	case VariantStrict:
		return Weights{Mandatory: 50, Desirable: 30, Experience: 20, RoleAlignment: 8, Impact: 8, SoftSkills: 4}
	default:
		return Weights{Mandatory: 50, Desirable: 25, Experience: 25, RoleAlignment: 10, Impact: 10, SoftSkills: 5}
	}
}

// ParseVariant maps a request parameter to a variant, defaulting to standard.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", string(VariantStandard):
		return VariantStandard, nil
	case string(VariantStrict):
		return VariantStrict, nil
	default:
		return "", fmt.Errorf("unknown scoring variant %q", s)
	}
}
