package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+12125551234", "+12125551234"},
		{"(212) 555-1234", "+12125551234"},
		{"212-555-1234", "+12125551234"},
		{" +12125551234 ", "+12125551234"},
		{"not a number", "not a number"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("+12125551234") {
		t.Fatal("expected valid number")
	}
	if IsValid("12") {
		t.Fatal("expected invalid number")
	}
	if IsValid("") {
		t.Fatal("expected empty input to be invalid")
	}
}
