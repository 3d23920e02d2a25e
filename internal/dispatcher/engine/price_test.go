package engine

import "testing"

func TestDeflectPrices_ReplacesQuotedPrice(t *testing.T) {
	reply, deflected := DeflectPrices("That usually runs $150 for the first hour.", "We quote on site.")
	if !deflected {
		t.Fatal("expected deflection")
	}
	if reply != "We quote on site." {
		t.Fatalf("expected tenant deflection message, got %q", reply)
	}
}

func TestDeflectPrices_RatePattern(t *testing.T) {
	_, deflected := DeflectPrices("Our electricians charge $80/hr.", "")
	if !deflected {
		t.Fatal("expected deflection for rate quote")
	}
}

func TestDeflectPrices_WrittenOutDollars(t *testing.T) {
	reply, deflected := DeflectPrices("Probably around 200 dollars all in.", "")
	if !deflected {
		t.Fatal("expected deflection")
	}
	if reply != DefaultDeflection {
		t.Fatalf("expected default deflection, got %q", reply)
	}
}

func TestDeflectPrices_CleanReplyPassesThrough(t *testing.T) {
	in := "We can come out Thursday morning. What's the address?"
	reply, deflected := DeflectPrices(in, "We quote on site.")
	if deflected {
		t.Fatal("expected no deflection")
	}
	if reply != in {
		t.Fatalf("reply changed: %q", reply)
	}
}

func TestDeflectPrices_BlankDeflectionFallsBackToDefault(t *testing.T) {
	reply, deflected := DeflectPrices("It's $99.", "   ")
	if !deflected || reply != DefaultDeflection {
		t.Fatalf("expected default deflection, got %q (deflected=%v)", reply, deflected)
	}
}
