package transport

// LimitResponse is the wire shape of a limit check.
type LimitResponse struct {
	Resource string `json:"resource"`
	Allowed  bool   `json:"allowed"`
	Used     int    `json:"used"`
	Limit    int    `json:"limit"`
	Reason   string `json:"reason,omitempty"`
}

// SubscriptionResponse describes the tenant's current subscription.
type SubscriptionResponse struct {
	Plan        string `json:"plan"`
	Status      string `json:"status"`
	LeadsUsed   int    `json:"leadsUsed"`
	LeadsLimit  int    `json:"leadsLimit"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}
