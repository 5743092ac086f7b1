package types

import "fmt"

// X402Version is the protocol version this gateway speaks.
const X402Version = 1

// PaymentRequirements describes one way a caller can pay for a resource.
// It is embedded in every 402 challenge and echoed back to the facilitator
// during verification, so the resource and amount are bound to the exact
// capability and price that issued the challenge.
type PaymentRequirements struct {
	// Scheme of the payment protocol (this gateway only issues "exact").
	Scheme string `json:"scheme"`

	// Network identifier the payment must be made on (e.g. "cronos-testnet").
	Network string `json:"network"`

	// Display price in USD ("$0.01").
	Price string `json:"price"`

	// MaxAmountRequired is the price in atomic units of the asset,
	// represented as a string because Go has no uint256.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// Resource is the route being purchased ("/capability/contract-scan").
	Resource string `json:"resource"`

	// Description of the capability being purchased.
	Description string `json:"description"`

	// MimeType of the resource response.
	MimeType string `json:"mimeType"`

	// PayTo is the settlement destination address.
	PayTo string `json:"payTo"`

	// Asset is the address of the EIP-3009 compliant payment token.
	Asset string `json:"asset"`

	// MaxTimeoutSeconds the caller should allow for settlement.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`
}

// Validate checks that the requirements carry every field the facilitator
// needs.
func (pr *PaymentRequirements) Validate() error {
	if pr.Scheme == "" {
		return fmt.Errorf("paymentRequirements.scheme is required")
	}
	if pr.Network == "" {
		return fmt.Errorf("paymentRequirements.network is required")
	}
	if pr.MaxAmountRequired == "" {
		return fmt.Errorf("paymentRequirements.maxAmountRequired is required")
	}
	if pr.Resource == "" {
		return fmt.Errorf("paymentRequirements.resource is required")
	}
	if pr.PayTo == "" {
		return fmt.Errorf("paymentRequirements.payTo is required")
	}
	if pr.Asset == "" {
		return fmt.Errorf("paymentRequirements.asset is required")
	}
	return nil
}

// PaymentChallenge is the 402 response body: the protocol version, the
// payment options the server accepts for this resource, and an optional
// error explaining why a presented proof was rejected.
type PaymentChallenge struct {
	X402Version int                   `json:"x402Version"`
	Accepts     []PaymentRequirements `json:"accepts"`
	Error       string                `json:"error,omitempty"`
}

// PaymentPayload is the decoded X-Payment header: an opaque signed proof plus
// enough envelope for routing. The proof itself is interpreted by the
// facilitator, never by this gateway.
type PaymentPayload struct {
	X402Version int    `json:"x402Version"`
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
	Payload     string `json:"payload"`
}

// Validate checks the payload envelope before it is sent to the facilitator.
func (p *PaymentPayload) Validate() error {
	if p.X402Version <= 0 {
		return fmt.Errorf("x402Version must be greater than 0")
	}
	if p.Payload == "" {
		return fmt.Errorf("payment payload is required")
	}
	if p.Network == "" {
		return fmt.Errorf("payment network is required")
	}
	return nil
}

// VerifyRequest is the body sent to the facilitator's verify and settle
// endpoints: the caller's proof paired with the server-derived requirements.
type VerifyRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// VerificationResult is the facilitator's answer to a verify call.
type VerificationResult struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettlementResult is the facilitator's answer to a settle call.
type SettlementResult struct {
	Success   bool   `json:"success"`
	TxHash    string `json:"txHash,omitempty"`
	NetworkID string `json:"networkId,omitempty"`
	Payer     string `json:"payer,omitempty"`
	Error     string `json:"error,omitempty"`
}
