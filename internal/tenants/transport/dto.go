package transport

// AISettingsRequest is the payload for updating dispatcher behavior.
type AISettingsRequest struct {
	Greeting             string   `json:"greeting" validate:"max=500"`
	Tone                 string   `json:"tone" validate:"omitempty,oneof=friendly professional casual"`
	Services             []string `json:"services" validate:"max=50,dive,max=100"`
	PricingDeflection    string   `json:"pricingDeflection" validate:"max=500"`
	EscalationMessage    string   `json:"escalationMessage" validate:"max=500"`
	EscalationKeywords   []string `json:"escalationKeywords" validate:"max=50,dive,max=100"`
	BudgetThresholdCents int64    `json:"budgetThresholdCents" validate:"min=0"`
	NotifyEmail          string   `json:"notifyEmail" validate:"omitempty,email"`
}

// AISettingsResponse mirrors the stored dispatcher settings.
type AISettingsResponse struct {
	Greeting             string   `json:"greeting"`
	Tone                 string   `json:"tone"`
	Services             []string `json:"services"`
	PricingDeflection    string   `json:"pricingDeflection"`
	EscalationMessage    string   `json:"escalationMessage"`
	EscalationKeywords   []string `json:"escalationKeywords"`
	BudgetThresholdCents int64    `json:"budgetThresholdCents"`
	NotifyEmail          string   `json:"notifyEmail"`
	PhoneNumbers         []string `json:"phoneNumbers"`
}
