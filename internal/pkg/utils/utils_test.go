package utils

import "testing"

func TestNormalizeDigits(t *testing.T) {
	cases := []struct{ in, want string }{
		{"٠٩١١٢٢٣٣٤٤", "0911223344"},
		{"۱۲۳", "123"},
		{"０９１１", "0911"},
		{"+251 911", "+251 911"},
	}
	for _, tc := range cases {
		if got := NormalizeDigits(tc.in); got != tc.want {
			t.Errorf("NormalizeDigits(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestParseInt(t *testing.T) {
	if got := ParseInt(" ٤٢ ", 0); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := ParseInt("abc", 7); got != 7 {
		t.Errorf("Expected default 7, got %d", got)
	}
}

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	if len(a) != 36 || a == b {
		t.Errorf("Expected two distinct UUIDs, got %s and %s", a, b)
	}
}
