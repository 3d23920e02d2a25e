// Package engine holds the conversation turn logic: prompt construction,
// structured field extraction, escalation policy, and price deflection.
// Everything here is deliberately free of transport and persistence concerns.
package engine

import "context"

// Fields is the structured lead data extracted incrementally across turns.
type Fields struct {
	CustomerName  string `json:"customerName,omitempty"`
	JobType       string `json:"jobType,omitempty"`
	Address       string `json:"address,omitempty"`
	Urgency       string `json:"urgency,omitempty"`
	PreferredDate string `json:"preferredDate,omitempty"`
	Notes         string `json:"notes,omitempty"`
	PhotoIntent   bool   `json:"photoIntent,omitempty"`
}

// Complete reports whether enough is known to hand the lead to a human.
func (f Fields) Complete() bool {
	return f.CustomerName != "" && f.JobType != "" && f.Address != "" && f.Urgency != ""
}

// Merge overlays newly extracted values onto previously known ones. Earlier
// answers are never erased by a turn that does not mention them.
func (f Fields) Merge(update Fields) Fields {
	if update.CustomerName != "" {
		f.CustomerName = update.CustomerName
	}
	if update.JobType != "" {
		f.JobType = update.JobType
	}
	if update.Address != "" {
		f.Address = update.Address
	}
	if update.Urgency != "" {
		f.Urgency = update.Urgency
	}
	if update.PreferredDate != "" {
		f.PreferredDate = update.PreferredDate
	}
	if update.Notes != "" {
		f.Notes = update.Notes
	}
	if update.PhotoIntent {
		f.PhotoIntent = true
	}
	return f
}

// Turn is one transcript entry fed to the generator.
type Turn struct {
	Role    string
	Content string
}

// GenerateRequest is the generator input for one conversation turn.
type GenerateRequest struct {
	System  string
	History []Turn
	Message string
}

// GenerateResult is the generator's structured output.
type GenerateResult struct {
	Reply    string `json:"reply"`
	Fields   Fields `json:"fields"`
	WantsEnd bool   `json:"wantsEnd"`
	Angry    bool   `json:"angry"`
}

// Generator produces one structured conversation turn. Implementations call
// an LLM backend; tests substitute deterministic fakes.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// TurnResult is the extractor's verdict for one inbound message.
type TurnResult struct {
	Reply      string
	Fields     Fields
	IsComplete bool
	WantsEnd   bool
	Angry      bool
	// Fallback is true when the generator failed and the canned reply was used.
	Fallback bool
}
