package types

import "fmt"

// Tier selects the accuracy/latency tradeoff for transcription.
type Tier string

const (
	TierHighAccuracy Tier = "high_accuracy"
	TierBalanced     Tier = "balanced"
	TierFast         Tier = "fast"
)

// Tiers lists all selectable tiers in prompt order.
func Tiers() []Tier {
	return []Tier{TierHighAccuracy, TierBalanced, TierFast}
}

// ParseTier converts callback data into a tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierHighAccuracy, TierBalanced, TierFast:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("unknown tier: %q", s)
	}
}

// Label returns the user-facing button text for a tier.
func (t Tier) Label() string {
	switch t {
	case TierHighAccuracy:
		return "Large"
	case TierBalanced:
		return "Base (recommended)"
	case TierFast:
		return "Tiny"
	default:
		return string(t)
	}
}

// WhisperModel maps a tier to the whisper model name it runs.
func (t Tier) WhisperModel() string {
	switch t {
	case TierHighAccuracy:
		return "large"
	case TierFast:
		return "tiny"
	default:
		return "base"
	}
}
