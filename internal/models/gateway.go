package models

// GatewayType groups mediums by how money moves.
type GatewayType string

const (
	GatewayTypeWallet GatewayType = "WALLET"
	GatewayTypeBank   GatewayType = "BANK"
	GatewayTypeCard   GatewayType = "CARD"
)

// Well-known medium keys. Bank keys are open-ended and come from the catalog.
const (
	MediumTelebirr    = "TELEBIRR"
	MediumCBE         = "CBE"
	MediumEbirr       = "EBIRR"
	MediumMpesa       = "MPESA"
	MediumCybersource = "CYBERSOURCE"
	MediumEthswitch   = "ETHSWITCH"
	// MediumSocialPay is the in-house wallet.
	MediumSocialPay   = "SOCIALPAY"
)

// Gateway is one entry of the backend's gateway listing.
type Gateway struct {
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	Type       GatewayType `json:"type"`
	CanProcess bool        `json:"can_process"`
	CanSettle  bool        `json:"can_settle"`
}

// PaymentMedium is a gateway as offered to a payer during one checkout.
type PaymentMedium struct {
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	Type       GatewayType `json:"type"`
	CanProcess bool        `json:"can_process"`
	CanSettle  bool        `json:"can_settle"`
}

// Medium converts a catalog entry into a selectable medium.
func (g Gateway) Medium() PaymentMedium {
	return PaymentMedium{
		Key:        g.Key,
		Name:       g.Name,
		Type:       g.Type,
		CanProcess: g.CanProcess,
		CanSettle:  g.CanSettle,
	}
}
