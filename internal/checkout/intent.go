package checkout

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"socialpay/internal/models"
	"socialpay/internal/pkg/utils"
)

// Target is what a checkout pays. Exactly one reference id is set, chosen by
// Variant.
type Target struct {
	Variant      models.FlowVariant
	ID           string
	StaticAmount decimal.NullDecimal
	SuccessURL   string
	FailureURL   string
}

// FixedAmount reports whether the target dictates the amount.
func (t Target) FixedAmount() bool {
	return t.StaticAmount.Valid && t.StaticAmount.Decimal.IsPositive()
}

// TipIntent is an optional transfer bundled with the payment.
type TipIntent struct {
	Amount string
	Phone  string
	Medium string
}

// Intent holds what the payer has entered so far. It is mutated freely and
// validated only when a request is built from it.
type Intent struct {
	target Target
	amount string
	phone  string
	medium string
	tip    TipIntent
}

func (i *Intent) SetAmount(v string)    { i.amount = v }
func (i *Intent) SetPhone(v string)     { i.phone = v }
func (i *Intent) SetMedium(v string)    { i.medium = v }
func (i *Intent) SetTipAmount(v string) { i.tip.Amount = v }
func (i *Intent) SetTipPhone(v string)  { i.tip.Phone = v }
func (i *Intent) SetTipMedium(v string) { i.tip.Medium = v }

// Target returns the checkout target the intent was created for.
func (i *Intent) Target() Target {
	return i.target
}

// Medium returns the selected medium key in canonical form.
func (i *Intent) Medium() string {
	return normalizeKey(i.medium)
}

// TipAmount returns the tip that would be sent, if any.
func (i *Intent) TipAmount() (decimal.Decimal, bool) {
	return parsePositive(i.tip.Amount)
}

func (i *Intent) resolveAmount() (decimal.Decimal, error) {
	if i.target.FixedAmount() {
		return i.target.StaticAmount.Decimal, nil
	}
	amount, ok := parsePositive(i.amount)
	if !ok {
		return decimal.Zero, &ValidationError{Kind: MissingAmount, Field: "amount"}
	}
	return amount, nil
}

// parsePositive accepts "1,250.50" style input and rejects anything <= 0.
func parsePositive(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(utils.NormalizeDigits(s)), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// wireNumber renders a decimal as a bare JSON number.
func wireNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
