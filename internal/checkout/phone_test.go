package checkout

import "testing"

func TestPhoneRule_Normalize(t *testing.T) {
	rule := DefaultPhoneRule
	cases := []struct {
		raw    string
		medium string
		want   string
		ok     bool
	}{
		{"911223344", "TELEBIRR", "+251911223344", true},
		{"0911223344", "CBE", "+251911223344", true},
		{"+251 911 22 33 44", "TELEBIRR", "+251911223344", true},
		{"251911223344", "EBIRR", "+251911223344", true},
		{"(091) 122-3344", "TELEBIRR", "+251911223344", true},
		{"0711223344", "MPESA", "+251711223344", true},
		{"711223344", "mpesa", "+251711223344", true},
		{"711223344", "TELEBIRR", "", false},
		{"911223344", "MPESA", "", false},
		{"91122334", "TELEBIRR", "", false},
		{"9112233445", "TELEBIRR", "", false},
		{"", "TELEBIRR", "", false},
	}
	for _, tc := range cases {
		got, ok := rule.Normalize(tc.raw, tc.medium)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Normalize(%q, %q) = %q, %v; expected %q, %v", tc.raw, tc.medium, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPhoneRule_LocalIsNineDigits(t *testing.T) {
	for _, raw := range []string{"0911223344", "+251911223344", "911223344"} {
		local, ok := DefaultPhoneRule.Local(raw, "CBE")
		if !ok {
			t.Fatalf("Expected %q to be valid", raw)
		}
		if len(local) != 9 {
			t.Errorf("Expected 9 local digits for %q, got %q", raw, local)
		}
	}
}

func TestPhoneRule_NoCountryCode(t *testing.T) {
	got, ok := PhoneRule{}.Normalize("0911223344", "TELEBIRR")
	if !ok || got != "911223344" {
		t.Errorf("Expected local digits only, got %q, %v", got, ok)
	}
}
