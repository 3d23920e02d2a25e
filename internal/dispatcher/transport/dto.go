package transport

// VoiceWebhookForm is the subset of the provider's voice webhook we consume.
// SpeechResult is empty on the first turn of a call.
type VoiceWebhookForm struct {
	From         string `form:"From" validate:"required,max=30"`
	To           string `form:"To" validate:"required,max=30"`
	CallSid      string `form:"CallSid" validate:"max=64"`
	SpeechResult string `form:"SpeechResult" validate:"max=2000"`
}

// SMSWebhookForm is the subset of the provider's SMS webhook we consume.
type SMSWebhookForm struct {
	From       string `form:"From" validate:"required,max=30"`
	To         string `form:"To" validate:"required,max=30"`
	Body       string `form:"Body" validate:"required,max=2000"`
	MessageSid string `form:"MessageSid" validate:"max=64"`
}
