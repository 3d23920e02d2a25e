package engine

import "testing"

func TestShouldEscalate_HighBudgetOverThreshold(t *testing.T) {
	d := ShouldEscalate("we're looking at about $5,000 for this", Fields{}, false, Policy{})
	if !d.Escalate {
		t.Fatal("expected escalation")
	}
	if d.Reason != ReasonHighBudget {
		t.Fatalf("expected reason %q, got %q", ReasonHighBudget, d.Reason)
	}
}

func TestShouldEscalate_BudgetAtThresholdDoesNotTrigger(t *testing.T) {
	d := ShouldEscalate("my budget is $2,000", Fields{}, false, Policy{})
	if d.Escalate {
		t.Fatalf("expected no escalation at the default threshold, got %q", d.Reason)
	}
}

func TestShouldEscalate_TenantThresholdOverridesDefault(t *testing.T) {
	policy := Policy{BudgetThresholdCents: 50_000}
	d := ShouldEscalate("should run around $800", Fields{}, false, policy)
	if !d.Escalate || d.Reason != ReasonHighBudget {
		t.Fatalf("expected high_budget with lowered threshold, got %+v", d)
	}
}

func TestShouldEscalate_BudgetShorthand(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"we have 50k set aside", true},
		{"around 50 grand total", true},
		{"maybe 3000 dollars", true},
		{"a few hundred bucks", false},
		{"my house number is 2500", false},
	}
	for _, tc := range cases {
		d := ShouldEscalate(tc.text, Fields{}, false, Policy{})
		if d.Escalate != tc.want {
			t.Fatalf("%q: expected escalate=%v, got %+v", tc.text, tc.want, d)
		}
		if tc.want && d.Reason != ReasonHighBudget {
			t.Fatalf("%q: expected reason high_budget, got %q", tc.text, d.Reason)
		}
	}
}

func TestShouldEscalate_BudgetWinsOverRemodel(t *testing.T) {
	d := ShouldEscalate("full remodel, budget is $80,000", Fields{}, false, Policy{})
	if d.Reason != ReasonHighBudget {
		t.Fatalf("expected budget rule to win, got %q", d.Reason)
	}
}

func TestShouldEscalate_Remodel(t *testing.T) {
	d := ShouldEscalate("thinking about a kitchen remodel", Fields{}, false, Policy{})
	if !d.Escalate || d.Reason != ReasonFullRemodel {
		t.Fatalf("expected full_remodel, got %+v", d)
	}
}

func TestShouldEscalate_OwnerRequest(t *testing.T) {
	d := ShouldEscalate("I want to speak to the owner please", Fields{}, false, Policy{})
	if !d.Escalate || d.Reason != ReasonOwnerRequest {
		t.Fatalf("expected owner_request, got %+v", d)
	}
}

func TestShouldEscalate_AngryKeyword(t *testing.T) {
	d := ShouldEscalate("this is ridiculous, I'll get a lawyer", Fields{}, false, Policy{})
	if !d.Escalate || d.Reason != ReasonAngryClient {
		t.Fatalf("expected angry_client, got %+v", d)
	}
}

func TestShouldEscalate_ModelAngryFlagIsLastResort(t *testing.T) {
	d := ShouldEscalate("fine, whatever", Fields{}, true, Policy{})
	if !d.Escalate || d.Reason != ReasonAngryClient {
		t.Fatalf("expected angry_client from model flag, got %+v", d)
	}
}

func TestShouldEscalate_TenantKeyword(t *testing.T) {
	policy := Policy{Keywords: []string{"insurance claim"}}
	d := ShouldEscalate("this is an Insurance Claim job", Fields{}, false, policy)
	if !d.Escalate || d.Reason != ReasonOther {
		t.Fatalf("expected other from tenant keyword, got %+v", d)
	}
}

func TestShouldEscalate_ComplexElectricalFromJobType(t *testing.T) {
	d := ShouldEscalate("when can you come out?", Fields{JobType: "Panel upgrade"}, false, Policy{})
	if !d.Escalate || d.Reason != ReasonComplexElectrical {
		t.Fatalf("expected complex_electrical, got %+v", d)
	}
}

func TestShouldEscalate_ComplexPlumbingFromText(t *testing.T) {
	d := ShouldEscalate("the sewer line backed up again", Fields{}, false, Policy{})
	if !d.Escalate || d.Reason != ReasonComplexPlumbing {
		t.Fatalf("expected complex_plumbing, got %+v", d)
	}
}

func TestShouldEscalate_CleanTurn(t *testing.T) {
	d := ShouldEscalate("my tv needs mounting, tomorrow works", Fields{}, false, Policy{})
	if d.Escalate {
		t.Fatalf("expected no escalation, got %+v", d)
	}
}
