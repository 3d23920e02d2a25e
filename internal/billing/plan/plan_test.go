package plan

import "testing"

func TestLimitsFor_StarterCaps(t *testing.T) {
	limits := LimitsFor(Starter)
	if limits.LeadsPerMonth != 100 {
		t.Fatalf("expected 100 leads/month, got %d", limits.LeadsPerMonth)
	}
	if limits.PhoneNumbers != 1 {
		t.Fatalf("expected 1 phone number, got %d", limits.PhoneNumbers)
	}
	if !limits.HasFeature(FeatureVoiceAgent) {
		t.Fatal("starter must include the voice agent")
	}
	if limits.HasFeature(FeatureMarketScanner) {
		t.Fatal("starter must not include the market scanner")
	}
}

func TestLimitsFor_BusinessUnlimitedLeads(t *testing.T) {
	limits := LimitsFor(Business)
	if limits.LeadsPerMonth != Unlimited {
		t.Fatalf("expected unlimited leads, got %d", limits.LeadsPerMonth)
	}
	if !limits.HasFeature(FeatureOutreach) {
		t.Fatal("business must include outreach")
	}
}

func TestLimitsFor_UnknownPlanFallsBackToStarter(t *testing.T) {
	unknown := LimitsFor(Plan("enterprise-beta"))
	starter := LimitsFor(Starter)
	if unknown.LeadsPerMonth != starter.LeadsPerMonth {
		t.Fatalf("unknown plan granted %d leads, starter grants %d", unknown.LeadsPerMonth, starter.LeadsPerMonth)
	}
	if unknown.HasFeature(FeatureMarketScanner) {
		t.Fatal("unknown plan must not grant features beyond starter")
	}
}

func TestCap_CoversEveryResource(t *testing.T) {
	limits := LimitsFor(Professional)
	cases := map[Resource]int{
		ResourceLeads:        500,
		ResourcePhoneNumbers: 3,
		ResourceTeamMembers:  10,
		ResourceIntegrations: 3,
	}
	for resource, want := range cases {
		if got := limits.Cap(resource); got != want {
			t.Fatalf("Cap(%s) = %d, want %d", resource, got, want)
		}
	}
	if got := limits.Cap(Resource("unknown")); got != 0 {
		t.Fatalf("unknown resource must cap at 0, got %d", got)
	}
}
