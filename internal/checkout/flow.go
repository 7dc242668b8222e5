package checkout

import (
	"context"
	"fmt"
	"strings"

	"socialpay/internal/models"
	"socialpay/internal/payment"
)

// Redirects are the merchant-configured exits after a terminal outcome.
type Redirects struct {
	SuccessURL string
	FailureURL string
}

// Configured reports whether any redirect applies.
func (r Redirects) Configured() bool {
	return r.SuccessURL != "" || r.FailureURL != ""
}

// FlowAdapter is one checkout variant. Variants share the orchestration and
// differ in request shape and initiation endpoint.
type FlowAdapter interface {
	// Variant identifies the flow.
	Variant() models.FlowVariant

	// NewIntent returns an empty intent bound to this flow's target.
	NewIntent() *Intent

	// BuildRequest validates the intent and produces the wire payload.
	BuildRequest(in *Intent) (payment.Payload, error)

	// Submit sends a built payload to the variant's initiation endpoint.
	Submit(ctx context.Context, payload payment.Payload) (*payment.InitiateResult, error)

	// Redirects returns the post-outcome redirect URLs, if the flow has any.
	Redirects() Redirects
}

type baseFlow struct {
	variant  models.FlowVariant
	refField string
	target   Target
	rule     PhoneRule
	backend  payment.Backend
}

func (f *baseFlow) Variant() models.FlowVariant {
	return f.variant
}

func (f *baseFlow) NewIntent() *Intent {
	return &Intent{target: f.target}
}

func (f *baseFlow) Redirects() Redirects {
	return Redirects{}
}

func (f *baseFlow) Submit(ctx context.Context, payload payment.Payload) (*payment.InitiateResult, error) {
	return f.backend.InitiatePayment(ctx, f.variant, payload)
}

func (f *baseFlow) BuildRequest(in *Intent) (payment.Payload, error) {
	medium := in.Medium()
	if medium == "" {
		return nil, &ValidationError{Kind: MissingMedium, Field: "medium"}
	}

	amount, err := in.resolveAmount()
	if err != nil {
		return nil, err
	}

	phone, ok := f.rule.Normalize(in.phone, medium)
	if !ok {
		return nil, &ValidationError{Kind: InvalidPhone, Field: "phone_number"}
	}

	payload := payment.Payload{
		f.refField:     in.target.ID,
		"amount":       wireNumber(amount),
		"phone_number": phone,
		"medium":       medium,
	}

	// A tip that does not parse to a positive amount is absent, whatever
	// else was filled in.
	if tipAmount, ok := in.TipAmount(); ok {
		tipMedium := normalizeKey(in.tip.Medium)
		if tipMedium == "" {
			tipMedium = medium
		}
		tipPhone, ok := f.rule.Normalize(in.tip.Phone, tipMedium)
		if !ok {
			return nil, &ValidationError{Kind: InvalidPhone, Field: "tip_phone"}
		}
		payload["tip_amount"] = wireNumber(tipAmount)
		payload["tipee_phone"] = tipPhone
		payload["tip_medium"] = tipMedium
	}

	return payload, nil
}

// MerchantFlow pays a merchant directly.
type MerchantFlow struct{ baseFlow }

// CheckoutLinkFlow pays a hosted checkout link. It is the only variant with
// merchant-configured redirects.
type CheckoutLinkFlow struct{ baseFlow }

func (f *CheckoutLinkFlow) Redirects() Redirects {
	return Redirects{SuccessURL: f.target.SuccessURL, FailureURL: f.target.FailureURL}
}

// QRLinkFlow pays a QR-code link.
type QRLinkFlow struct{ baseFlow }

var (
	_ FlowAdapter = (*MerchantFlow)(nil)
	_ FlowAdapter = (*CheckoutLinkFlow)(nil)
	_ FlowAdapter = (*QRLinkFlow)(nil)
)

// NewFlow creates the adapter for target's variant.
func NewFlow(target Target, backend payment.Backend, rule PhoneRule) (FlowAdapter, error) {
	target.ID = strings.TrimSpace(target.ID)
	if target.ID == "" {
		return nil, ErrMissingTarget
	}

	base := baseFlow{
		variant: target.Variant,
		target:  target,
		rule:    rule,
		backend: backend,
	}

	switch target.Variant {
	case models.FlowMerchant:
		base.refField = "merchant_id"
		return &MerchantFlow{base}, nil
	case models.FlowCheckoutLink:
		base.refField = "checkout_id"
		return &CheckoutLinkFlow{base}, nil
	case models.FlowQRLink:
		base.refField = "qr_link_id"
		return &QRLinkFlow{base}, nil
	default:
		return nil, fmt.Errorf("unsupported flow variant: %s", target.Variant)
	}
}
