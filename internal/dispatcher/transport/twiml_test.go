package transport

import (
	"strings"
	"testing"
)

func TestRenderVoice_OpenConversationGathersSpeech(t *testing.T) {
	out, err := RenderVoice("How can we help?", "/webhooks/voice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<Gather input="speech" action="/webhooks/voice" speechTimeout="3">`) {
		t.Fatalf("missing gather verb:\n%s", out)
	}
	if !strings.Contains(out, "<Say>How can we help?</Say>") {
		t.Fatalf("missing say verb:\n%s", out)
	}
	if strings.Contains(out, "<Hangup") {
		t.Fatalf("open conversation must not hang up:\n%s", out)
	}
}

func TestRenderVoice_EndCallSpeaksThenHangsUp(t *testing.T) {
	out, err := RenderVoice("Someone will call you back shortly.", "/webhooks/voice", true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<Say>Someone will call you back shortly.</Say>") {
		t.Fatalf("missing say verb:\n%s", out)
	}
	if !strings.Contains(out, "<Hangup>") {
		t.Fatalf("missing hangup verb:\n%s", out)
	}
	if strings.Contains(out, "<Gather") {
		t.Fatalf("terminal reply must not gather:\n%s", out)
	}
	if strings.Index(out, "<Say>") > strings.Index(out, "<Hangup>") {
		t.Fatalf("say must come before hangup:\n%s", out)
	}
}

func TestRenderSMS(t *testing.T) {
	out, err := RenderSMS("Thanks! What's the address?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<Message>Thanks! What&#39;s the address?</Message>") {
		t.Fatalf("missing message verb:\n%s", out)
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Fatalf("missing XML declaration:\n%s", out)
	}
}

func TestRenderVoice_EscapesReplyText(t *testing.T) {
	out, err := RenderVoice(`We do "smart" installs & more`, "/webhooks/voice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "&amp;") {
		t.Fatalf("ampersand not escaped:\n%s", out)
	}
	if strings.Contains(out, `installs & more`) {
		t.Fatalf("raw ampersand leaked:\n%s", out)
	}
}
