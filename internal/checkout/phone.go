package checkout

import (
	"strings"

	"socialpay/internal/models"
	"socialpay/internal/pkg/utils"
)

const localPhoneDigits = 9

// PhoneRule normalizes payer numbers to local digits and applies the
// country prefix.
type PhoneRule struct {
	// CountryCode is prepended to the 9 local digits, e.g. "+251". Empty
	// sends local digits only.
	CountryCode string
}

// DefaultPhoneRule is the Ethiopian numbering rule.
var DefaultPhoneRule = PhoneRule{CountryCode: "+251"}

// Normalize returns the submission form of raw, or false when the number
// does not satisfy the rule for medium.
func (r PhoneRule) Normalize(raw, medium string) (string, bool) {
	local, ok := r.Local(raw, medium)
	if !ok {
		return "", false
	}
	return r.CountryCode + local, true
}

// Local reduces raw to exactly 9 local digits.
func (r PhoneRule) Local(raw, medium string) (string, bool) {
	d := DigitsOnly(raw)
	cc := DigitsOnly(r.CountryCode)
	if cc != "" && len(d) == len(cc)+localPhoneDigits && strings.HasPrefix(d, cc) {
		d = d[len(cc):]
	}
	if len(d) == localPhoneDigits+1 && d[0] == '0' {
		d = d[1:]
	}
	if len(d) != localPhoneDigits || d[0] != leadingDigit(medium) {
		return "", false
	}
	return d, true
}

// M-Pesa numbers start with 7, every other medium uses the 9 range.
func leadingDigit(medium string) byte {
	if strings.EqualFold(strings.TrimSpace(medium), models.MediumMpesa) {
		return '7'
	}
	return '9'
}

// DigitsOnly strips everything but digits, converting non-ASCII numerals
// first.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range utils.NormalizeDigits(s) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
