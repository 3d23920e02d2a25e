package engine

import (
	"regexp"
	"strings"
)

// pricePattern catches bare price tokens in generated replies: "$123",
// "$1,299.99", "99 dollars", "$80/hr".
var pricePattern = regexp.MustCompile(`\$\s?[0-9][0-9,]*(?:\.[0-9]{2})?(?:\s?/\s?(?:hr|hour|day|sq ?ft))?|\b[0-9][0-9,]*\s?(?:dollars|bucks)\b`)

// DefaultDeflection is the reply used when a tenant has no custom deflection
// message configured.
const DefaultDeflection = "Pricing depends on the job, so we provide a free on-site estimate. Can I get a few details to set that up?"

// DeflectPrices replaces any reply that quotes a price with the tenant's
// deflection message. The model is instructed never to quote prices; this is
// the enforcement backstop, applied to every generated reply.
func DeflectPrices(reply, deflection string) (string, bool) {
	if !pricePattern.MatchString(reply) {
		return reply, false
	}
	if strings.TrimSpace(deflection) == "" {
		deflection = DefaultDeflection
	}
	return deflection, true
}
