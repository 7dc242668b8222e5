package models

// FlowVariant says which kind of target a checkout pays.
type FlowVariant string

const (
	FlowMerchant     FlowVariant = "merchant"
	FlowCheckoutLink FlowVariant = "checkout"
	FlowQRLink       FlowVariant = "qr"
)

// Valid reports whether v is one of the known variants.
func (v FlowVariant) Valid() bool {
	switch v {
	case FlowMerchant, FlowCheckoutLink, FlowQRLink:
		return true
	}
	return false
}
