package subscription

import "slices"

// Plan describes a subscription tier and its ceilings. CallsPerDay and
// MaxAPIKeys use Unlimited (-1) for uncapped tiers.
type Plan struct {
	ID              PlanID       `yaml:"-"`
	Name            string       `yaml:"name"`
	PriceFET        int64        `yaml:"price_fet"` // monthly price in whole FET
	CallsPerDay     int64        `yaml:"calls_per_day"`
	Capabilities    []Capability `yaml:"capabilities"` // ceiling set, never exceeded by a live subscription
	MaxAPIKeys      int64        `yaml:"max_api_keys"`
	AnalyticsDays   int          `yaml:"analytics_days"`
	SupportSLAHours int          `yaml:"support_sla_hours"`
	TrialDays       int          `yaml:"trial_days"`
}

// IsFree reports whether the plan activates without a verified payment.
func (p Plan) IsFree() bool {
	return p.PriceFET == 0
}

// AllowsCapability reports whether the capability is inside the plan ceiling.
func (p Plan) AllowsCapability(c Capability) bool {
	return slices.Contains(p.Capabilities, c)
}

// ValidityDays returns how long a fresh activation of this plan lasts.
// Trial tiers use their trial window, paid tiers a billing month.
func (p Plan) ValidityDays() int {
	if p.TrialDays > 0 {
		return p.TrialDays
	}
	return defaultValidityDays
}

const defaultValidityDays = 30
