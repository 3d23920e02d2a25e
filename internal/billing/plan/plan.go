// Package plan defines the subscription tiers and the limits each tier
// grants. Everything here is pure: no I/O, total over the plan enum.
package plan

// Plan is a subscription tier.
type Plan string

const (
	Starter      Plan = "starter"
	Professional Plan = "professional"
	Business     Plan = "business"
)

// Status is a subscription lifecycle state.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Unlimited is the sentinel for limits without a numeric cap.
const Unlimited = -1

// Feature is a gated product capability.
type Feature string

const (
	FeatureVoiceAgent    Feature = "voice_agent"
	FeatureMarketScanner Feature = "market_scanner"
	FeatureOutreach      Feature = "outreach"
	FeatureLeadNurture   Feature = "lead_nurture"
)

// Resource is a countable resource gated per billing period or per tenant.
type Resource string

const (
	ResourceLeads        Resource = "leads"
	ResourcePhoneNumbers Resource = "phone_numbers"
	ResourceTeamMembers  Resource = "team_members"
	ResourceIntegrations Resource = "integrations"
)

// Limits is the full set of numeric and feature limits for one tier.
type Limits struct {
	LeadsPerMonth      int
	PhoneNumbers       int
	TeamMembers        int
	IntegrationSources int
	Features           map[Feature]bool
}

// Cap returns the numeric cap for a resource, Unlimited when uncapped.
func (l Limits) Cap(r Resource) int {
	switch r {
	case ResourceLeads:
		return l.LeadsPerMonth
	case ResourcePhoneNumbers:
		return l.PhoneNumbers
	case ResourceTeamMembers:
		return l.TeamMembers
	case ResourceIntegrations:
		return l.IntegrationSources
	default:
		return 0
	}
}

// HasFeature reports whether the tier includes the feature.
func (l Limits) HasFeature(f Feature) bool {
	return l.Features[f]
}

// LimitsFor maps a plan tier to its limits. Unknown or empty plans fall back
// to the starter tier; missing plan data must never grant more than the
// lowest tier.
func LimitsFor(p Plan) Limits {
	switch p {
	case Professional:
		return Limits{
			LeadsPerMonth:      500,
			PhoneNumbers:       3,
			TeamMembers:        10,
			IntegrationSources: 3,
			Features: map[Feature]bool{
				FeatureVoiceAgent:    true,
				FeatureMarketScanner: true,
				FeatureOutreach:      true,
				FeatureLeadNurture:   true,
			},
		}
	case Business:
		return Limits{
			LeadsPerMonth:      Unlimited,
			PhoneNumbers:       10,
			TeamMembers:        Unlimited,
			IntegrationSources: Unlimited,
			Features: map[Feature]bool{
				FeatureVoiceAgent:    true,
				FeatureMarketScanner: true,
				FeatureOutreach:      true,
				FeatureLeadNurture:   true,
			},
		}
	default:
		return Limits{
			LeadsPerMonth:      100,
			PhoneNumbers:       1,
			TeamMembers:        2,
			IntegrationSources: 1,
			Features: map[Feature]bool{
				FeatureVoiceAgent: true,
			},
		}
	}
}
