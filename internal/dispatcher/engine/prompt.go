package engine

import (
	"fmt"
	"strings"
)

// PromptConfig is the tenant-controlled part of the system prompt.
type PromptConfig struct {
	BusinessName      string
	Industry          string
	Tone              string
	Services          []string
	PricingDeflection string
	Channel           string
}

// BuildSystemPrompt assembles the generation instructions from the tenant's
// AI configuration. Kept as one readable template so support staff can
// reason about what the model was told.
func BuildSystemPrompt(cfg PromptConfig, known Fields) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the virtual receptionist for %s", cfg.BusinessName)
	if cfg.Industry != "" {
		fmt.Fprintf(&b, ", a %s business", cfg.Industry)
	}
	b.WriteString(".\n")

	tone := cfg.Tone
	if tone == "" {
		tone = "friendly"
	}
	fmt.Fprintf(&b, "Speak in a %s tone.\n", tone)

	if cfg.Channel == "voice" {
		b.WriteString("This is a phone call. Keep every reply to 1-2 short spoken sentences.\n")
	} else {
		b.WriteString("This is a text-message conversation. Keep every reply to 1-3 short sentences.\n")
	}

	if len(cfg.Services) > 0 {
		fmt.Fprintf(&b, "Services offered: %s.\n", strings.Join(cfg.Services, ", "))
		b.WriteString("Classify the customer's job into one of those services; use \"General\" when none fits.\n")
	}

	b.WriteString("Your goal is to collect, one question at a time: the customer's name, " +
		"the type of job, the job address, and the urgency (ASAP, Flexible, or a specific date).\n")
	b.WriteString("Never quote a price, rate, or cost figure of any kind. ")
	if cfg.PricingDeflection != "" {
		fmt.Fprintf(&b, "If asked about pricing say: %q\n", cfg.PricingDeflection)
	} else {
		b.WriteString("If asked about pricing, explain that an on-site estimate is needed.\n")
	}

	if known != (Fields{}) {
		b.WriteString("Already known, do not ask again:")
		if known.CustomerName != "" {
			fmt.Fprintf(&b, " name=%s", known.CustomerName)
		}
		if known.JobType != "" {
			fmt.Fprintf(&b, " job=%s", known.JobType)
		}
		if known.Address != "" {
			fmt.Fprintf(&b, " address=%s", known.Address)
		}
		if known.Urgency != "" {
			fmt.Fprintf(&b, " urgency=%s", known.Urgency)
		}
		b.WriteString(".\n")
	}

	b.WriteString("Respond with JSON: reply (string), fields (customerName, jobType, address, " +
		"urgency, preferredDate, notes, photoIntent), wantsEnd (true when the customer is saying " +
		"goodbye), angry (true when the customer sounds angry or frustrated).")

	return b.String()
}
