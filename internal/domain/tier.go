package domain

import "fmt"

// Tier summarizes the quality of a match set.
type Tier string

// Tier values, serialized lowercase.
const (
	TierSoulmate Tier = "soulmate"
	TierExplorer Tier = "explorer"
	TierFallback Tier = "fallback"
)

// Tier thresholds on the best match score. Both bounds are exclusive:
// a score equal to either threshold classifies as explorer.
const (
	SoulmateThreshold = 0.87
	FallbackThreshold = 0.55
)

// ClassifyTier maps the best match score to a tier.
func ClassifyTier(best float64) Tier {
	switch {
	case best > SoulmateThreshold:
		return TierSoulmate
	case best < FallbackThreshold:
		return TierFallback
	default:
		return TierExplorer
	}
}

// IsValid reports whether t is one of the known tiers.
func (t Tier) IsValid() bool {
	return t == TierSoulmate || t == TierExplorer || t == TierFallback
}

// UnmarshalText rejects unknown tiers.
func (t *Tier) UnmarshalText(b []byte) error {
	v := Tier(b)
	if !v.IsValid() {
		return fmt.Errorf("unknown tier %q", string(b))
	}
	*t = v
	return nil
}
