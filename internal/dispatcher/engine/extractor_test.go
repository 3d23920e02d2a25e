package engine

import (
	"context"
	"errors"
	"testing"
)

type stubGenerator struct {
	result  GenerateResult
	err     error
	lastReq GenerateRequest
}

func (s *stubGenerator) Generate(_ context.Context, req GenerateRequest) (GenerateResult, error) {
	s.lastReq = req
	return s.result, s.err
}

func TestNextTurn_GeneratorFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend down")}
	ex := NewExtractor(gen)

	known := Fields{CustomerName: "Maria"}
	result := ex.NextTurn(context.Background(), PromptConfig{}, known, nil, "hello?")

	if !result.Fallback {
		t.Fatal("expected fallback turn")
	}
	if result.Reply != FallbackReply {
		t.Fatalf("expected canned reply, got %q", result.Reply)
	}
	if result.Fields.CustomerName != "Maria" {
		t.Fatal("known fields must survive a failed turn")
	}
	if result.IsComplete {
		t.Fatal("fallback turn must not report completeness")
	}
}

func TestNextTurn_MergePreservesEarlierAnswers(t *testing.T) {
	gen := &stubGenerator{result: GenerateResult{
		Reply:  "Got it. What's the address?",
		Fields: Fields{JobType: "tv mounting"},
	}}
	ex := NewExtractor(gen)

	known := Fields{CustomerName: "Sam", Urgency: "ASAP"}
	result := ex.NextTurn(context.Background(), PromptConfig{Services: []string{"TV mounting", "Drywall"}}, known, nil, "need my tv mounted")

	if result.Fields.CustomerName != "Sam" {
		t.Fatalf("name erased by merge: %+v", result.Fields)
	}
	if result.Fields.JobType != "TV mounting" {
		t.Fatalf("expected job type snapped to service list, got %q", result.Fields.JobType)
	}
	if result.Fields.Urgency != "ASAP" {
		t.Fatalf("urgency erased: %+v", result.Fields)
	}
	if gen.lastReq.Message != "need my tv mounted" {
		t.Fatalf("customer message not forwarded: %q", gen.lastReq.Message)
	}
}

func TestNextTurn_CompleteWhenAllCoreFieldsKnown(t *testing.T) {
	gen := &stubGenerator{result: GenerateResult{
		Reply:  "Perfect, we'll see you then.",
		Fields: Fields{Address: "12 Oak St", Urgency: "flexible"},
	}}
	ex := NewExtractor(gen)

	known := Fields{CustomerName: "Sam", JobType: "Drywall"}
	result := ex.NextTurn(context.Background(), PromptConfig{Services: []string{"Drywall"}}, known, nil, "12 Oak St, whenever works")

	if !result.IsComplete {
		t.Fatalf("expected complete lead, got %+v", result.Fields)
	}
	if result.Fields.Urgency != "Flexible" {
		t.Fatalf("expected normalized urgency, got %q", result.Fields.Urgency)
	}
}

func TestNextTurn_BlankReplyFallsBack(t *testing.T) {
	gen := &stubGenerator{result: GenerateResult{Reply: "   "}}
	ex := NewExtractor(gen)

	result := ex.NextTurn(context.Background(), PromptConfig{}, Fields{}, nil, "hi")
	if result.Reply != FallbackReply {
		t.Fatalf("expected canned reply for blank generation, got %q", result.Reply)
	}
	if result.Fallback {
		t.Fatal("blank reply is not a generator failure")
	}
}

func TestNormalizeJobType(t *testing.T) {
	services := []string{"TV mounting", "Electrical", "Plumbing"}

	cases := []struct {
		in   string
		want string
	}{
		{"tv mounting", "TV mounting"},
		{"mounting", "TV mounting"},
		{"electrical", "Electrical"},
		{"install ceiling fan", "General"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeJobType(tc.in, services); got != tc.want {
			t.Fatalf("NormalizeJobType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if got := NormalizeJobType("anything", nil); got != "anything" {
		t.Fatalf("expected passthrough without a service list, got %q", got)
	}
}

func TestFieldsComplete(t *testing.T) {
	f := Fields{CustomerName: "A", JobType: "B", Address: "C"}
	if f.Complete() {
		t.Fatal("missing urgency must not be complete")
	}
	f.Urgency = "ASAP"
	if !f.Complete() {
		t.Fatal("expected complete")
	}
}
