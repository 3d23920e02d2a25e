package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// Escalation reasons, ordered by rule precedence.
const (
	ReasonHighBudget        = "high_budget"
	ReasonFullRemodel       = "full_remodel"
	ReasonAngryClient       = "angry_client"
	ReasonOwnerRequest      = "owner_request"
	ReasonComplexElectrical = "complex_electrical"
	ReasonComplexPlumbing   = "complex_plumbing"
	ReasonOther             = "other"
)

// DefaultBudgetThresholdCents is used when a tenant has not configured one.
const DefaultBudgetThresholdCents int64 = 200_000

// Policy is the tenant-configurable escalation rule set.
type Policy struct {
	BudgetThresholdCents int64
	Keywords             []string
	EscalationMessage    string
}

// Decision is the escalation verdict for one turn.
type Decision struct {
	Escalate bool
	Reason   string
}

var remodelKeywords = []string{"remodel", "renovation", "gut job", "full rebuild"}

var ownerKeywords = []string{"manager", "speak to owner", "speak to the owner", "talk to the owner", "supervisor"}

var angryKeywords = []string{"ridiculous", "terrible", "lawyer", "sue you", "worst", "scam", "unacceptable"}

var complexElectrical = []string{"panel upgrade", "panel replacement", "rewiring", "rewire", "service upgrade", "200 amp"}

var complexPlumbing = []string{"sewer", "repipe", "water heater replacement", "main line", "slab leak"}

// budgetPattern matches dollar amounts like "$2,500", "$50,000", "3000 dollars".
var budgetPattern = regexp.MustCompile(`\$\s?([0-9][0-9,]*)(?:\.[0-9]{2})?|([0-9][0-9,]*)\s?(?:dollars|bucks|grand|k\b)`)

// ShouldEscalate evaluates the tenant's escalation policy against the
// customer's raw text and the fields extracted so far. Pure and
// deterministic; first matching rule wins and fixes the reason tag.
func ShouldEscalate(customerText string, fields Fields, angry bool, policy Policy) Decision {
	lower := strings.ToLower(customerText)
	threshold := policy.BudgetThresholdCents
	if threshold <= 0 {
		threshold = DefaultBudgetThresholdCents
	}

	if cents, ok := maxMentionedBudgetCents(lower); ok && cents > threshold {
		return Decision{Escalate: true, Reason: ReasonHighBudget}
	}

	if containsAny(lower, remodelKeywords) {
		return Decision{Escalate: true, Reason: ReasonFullRemodel}
	}
	if containsAny(lower, ownerKeywords) {
		return Decision{Escalate: true, Reason: ReasonOwnerRequest}
	}
	if containsAny(lower, angryKeywords) {
		return Decision{Escalate: true, Reason: ReasonAngryClient}
	}

	for _, kw := range policy.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return Decision{Escalate: true, Reason: ReasonOther}
		}
	}

	jobLower := strings.ToLower(fields.JobType)
	if containsAny(lower, complexElectrical) || containsAny(jobLower, complexElectrical) {
		return Decision{Escalate: true, Reason: ReasonComplexElectrical}
	}
	if containsAny(lower, complexPlumbing) || containsAny(jobLower, complexPlumbing) {
		return Decision{Escalate: true, Reason: ReasonComplexPlumbing}
	}

	if angry {
		return Decision{Escalate: true, Reason: ReasonAngryClient}
	}

	return Decision{}
}

// maxMentionedBudgetCents extracts the largest dollar figure from the text.
// "50k" and "50 grand" count as 50,000.
func maxMentionedBudgetCents(lower string) (int64, bool) {
	matches := budgetPattern.FindAllStringSubmatch(lower, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var max int64
	found := false
	for _, m := range matches {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		raw = strings.ReplaceAll(raw, ",", "")
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		full := m[0]
		if strings.HasSuffix(full, "k") || strings.Contains(full, "grand") {
			value *= 1000
		}
		cents := value * 100
		if cents > max {
			max = cents
		}
		found = true
	}
	return max, found
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
