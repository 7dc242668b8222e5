package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"socialpay/internal/models"
	"socialpay/internal/payment"
)

type recordingBackend struct {
	payment.Backend
	variant models.FlowVariant
	payload payment.Payload
}

func (b *recordingBackend) InitiatePayment(ctx context.Context, variant models.FlowVariant, payload payment.Payload) (*payment.InitiateResult, error) {
	b.variant = variant
	b.payload = payload
	return &payment.InitiateResult{Success: true, TransactionID: "T1"}, nil
}

func mustFlow(t *testing.T, target Target) FlowAdapter {
	t.Helper()
	flow, err := NewFlow(target, &recordingBackend{}, DefaultPhoneRule)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return flow
}

func expectKind(t *testing.T, err error, kind ValidationKind, field string) {
	t.Helper()
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if ve.Kind != kind || ve.Field != field {
		t.Errorf("Expected %s on %s, got %s on %s", kind, field, ve.Kind, ve.Field)
	}
}

func TestNewFlow_ReferenceFieldPerVariant(t *testing.T) {
	cases := map[models.FlowVariant]string{
		models.FlowMerchant:     "merchant_id",
		models.FlowCheckoutLink: "checkout_id",
		models.FlowQRLink:       "qr_link_id",
	}
	for variant, field := range cases {
		flow := mustFlow(t, Target{Variant: variant, ID: "REF1"})
		in := flow.NewIntent()
		in.SetAmount("100")
		in.SetPhone("0911223344")
		in.SetMedium("telebirr")

		payload, err := flow.BuildRequest(in)
		if err != nil {
			t.Fatalf("%s: expected no error, got: %v", variant, err)
		}
		if payload[field] != "REF1" {
			t.Errorf("%s: expected %s=REF1, got %v", variant, field, payload[field])
		}
		if len(payload) != 4 {
			t.Errorf("%s: expected 4 keys, got %v", variant, payload)
		}
	}
}

func TestNewFlow_Errors(t *testing.T) {
	if _, err := NewFlow(Target{Variant: models.FlowMerchant}, nil, DefaultPhoneRule); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("Expected ErrMissingTarget, got %v", err)
	}
	if _, err := NewFlow(Target{Variant: "bogus", ID: "x"}, nil, DefaultPhoneRule); err == nil {
		t.Error("Expected error for unknown variant")
	}
}

func TestBuildRequest_ValidationOrder(t *testing.T) {
	flow := mustFlow(t, Target{Variant: models.FlowMerchant, ID: "M1"})
	in := flow.NewIntent()

	_, err := flow.BuildRequest(in)
	expectKind(t, err, MissingMedium, "medium")

	in.SetMedium("TELEBIRR")
	_, err = flow.BuildRequest(in)
	expectKind(t, err, MissingAmount, "amount")

	for _, bad := range []string{"0", "-5", "abc", "  "} {
		in.SetAmount(bad)
		_, err = flow.BuildRequest(in)
		expectKind(t, err, MissingAmount, "amount")
	}

	in.SetAmount("1,250.50")
	in.SetPhone("711223344")
	_, err = flow.BuildRequest(in)
	expectKind(t, err, InvalidPhone, "phone_number")

	in.SetPhone("911223344")
	payload, err := flow.BuildRequest(in)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if payload["amount"] != json.Number("1250.5") {
		t.Errorf("Expected amount 1250.5, got %v", payload["amount"])
	}
	if payload["phone_number"] != "+251911223344" {
		t.Errorf("Expected prefixed phone, got %v", payload["phone_number"])
	}
}

func TestBuildRequest_StaticAmountWins(t *testing.T) {
	flow := mustFlow(t, Target{
		Variant:      models.FlowQRLink,
		ID:           "Q1",
		StaticAmount: decimal.NewNullDecimal(decimal.NewFromInt(75)),
	})
	in := flow.NewIntent()
	in.SetMedium("CBE")
	in.SetPhone("911223344")
	in.SetAmount("")

	payload, err := flow.BuildRequest(in)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if payload["amount"] != json.Number("75") {
		t.Errorf("Expected static amount 75, got %v", payload["amount"])
	}
}

func TestBuildRequest_TipIncluded(t *testing.T) {
	flow := mustFlow(t, Target{Variant: models.FlowCheckoutLink, ID: "C1"})
	in := flow.NewIntent()
	in.SetMedium("TELEBIRR")
	in.SetAmount("200")
	in.SetPhone("911000000")
	in.SetTipAmount("50")
	in.SetTipPhone("911223344")
	in.SetTipMedium("CBE")

	payload, err := flow.BuildRequest(in)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if payload["tip_amount"] != json.Number("50") {
		t.Errorf("Expected tip_amount 50, got %v", payload["tip_amount"])
	}
	if payload["tipee_phone"] != "+251911223344" {
		t.Errorf("Expected prefixed tipee_phone, got %v", payload["tipee_phone"])
	}
	if payload["tip_medium"] != "CBE" {
		t.Errorf("Expected tip_medium CBE, got %v", payload["tip_medium"])
	}

	raw, _ := json.Marshal(payload)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	if decoded["tip_amount"] != float64(50) {
		t.Errorf("Expected tip_amount to encode as number, got %v", decoded["tip_amount"])
	}
}

func TestBuildRequest_TipOmittedUnlessPositive(t *testing.T) {
	flow := mustFlow(t, Target{Variant: models.FlowMerchant, ID: "M1"})
	for _, amount := range []string{"", "0", "0.00", "-10", "ten", "   "} {
		in := flow.NewIntent()
		in.SetMedium("TELEBIRR")
		in.SetAmount("100")
		in.SetPhone("911223344")
		in.SetTipAmount(amount)
		in.SetTipPhone("not a phone")
		in.SetTipMedium("CBE")

		payload, err := flow.BuildRequest(in)
		if err != nil {
			t.Fatalf("tip %q: expected no error, got: %v", amount, err)
		}
		for _, key := range []string{"tip_amount", "tipee_phone", "tip_medium"} {
			if _, ok := payload[key]; ok {
				t.Errorf("tip %q: expected %s to be absent", amount, key)
			}
		}
	}
}

func TestBuildRequest_TipPhoneValidatedAgainstTipMedium(t *testing.T) {
	flow := mustFlow(t, Target{Variant: models.FlowMerchant, ID: "M1"})
	in := flow.NewIntent()
	in.SetMedium("TELEBIRR")
	in.SetAmount("100")
	in.SetPhone("911223344")
	in.SetTipAmount("10")
	in.SetTipPhone("911223344")
	in.SetTipMedium("MPESA")

	_, err := flow.BuildRequest(in)
	expectKind(t, err, InvalidPhone, "tip_phone")

	in.SetTipMedium("")
	payload, err := flow.BuildRequest(in)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if payload["tip_medium"] != "TELEBIRR" {
		t.Errorf("Expected tip medium to default to TELEBIRR, got %v", payload["tip_medium"])
	}
}

func TestSubmit_UsesVariantEndpoint(t *testing.T) {
	backend := &recordingBackend{}
	flow, err := NewFlow(Target{Variant: models.FlowQRLink, ID: "Q1"}, backend, DefaultPhoneRule)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	res, err := flow.Submit(context.Background(), payment.Payload{"qr_link_id": "Q1"})
	if err != nil || !res.Success {
		t.Fatalf("Expected successful submit, got %+v, %v", res, err)
	}
	if backend.variant != models.FlowQRLink {
		t.Errorf("Expected variant %s, got %s", models.FlowQRLink, backend.variant)
	}
}

func TestRedirects_OnlyCheckoutLink(t *testing.T) {
	target := Target{ID: "X", SuccessURL: "https://shop/ok", FailureURL: "https://shop/fail"}

	target.Variant = models.FlowCheckoutLink
	if r := mustFlow(t, target).Redirects(); !r.Configured() || r.SuccessURL != "https://shop/ok" {
		t.Errorf("Expected checkout-link redirects, got %+v", r)
	}

	target.Variant = models.FlowMerchant
	if r := mustFlow(t, target).Redirects(); r.Configured() {
		t.Errorf("Expected no merchant redirects, got %+v", r)
	}
}
