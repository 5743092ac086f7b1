package payment

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cronosai/opsgate/network"
	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/types"
)

// PaymentHeader carries the caller's payment proof on retried requests.
const PaymentHeader = "X-Payment"

// settlementTimeoutSeconds is advertised to callers in challenges.
const settlementTimeoutSeconds = 60

// buildRequirements derives the payment requirements for one capability at
// its current registered price. The resource identifier and amount are bound
// to the exact capability issuing the challenge, so a proof generated for
// this challenge cannot be redeemed against another capability or a stale
// price.
func buildRequirements(cap *registry.Capability, net network.Config, payTo string) types.PaymentRequirements {
	return types.PaymentRequirements{
		Scheme:            "exact",
		Network:           net.NetworkID,
		Price:             cap.Price,
		MaxAmountRequired: cap.AtomicAmount(net.PaymentToken.Decimals),
		Resource:          fmt.Sprintf("/capability/%s", cap.Slug),
		Description:       cap.Description,
		MimeType:          "application/json",
		PayTo:             payTo,
		Asset:             net.PaymentToken.Address,
		MaxTimeoutSeconds: settlementTimeoutSeconds,
	}
}

// challenge wraps requirements in a 402 response body, optionally carrying a
// rejection reason. The reason must stay generic and retry-safe.
func challenge(reqs types.PaymentRequirements, reason string) types.PaymentChallenge {
	return types.PaymentChallenge{
		X402Version: types.X402Version,
		Accepts:     []types.PaymentRequirements{reqs},
		Error:       reason,
	}
}

// decodePaymentHeader parses the base64-encoded JSON payment payload from
// the X-Payment header.
func decodePaymentHeader(header string) (*types.PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("payment header is not valid base64: %w", err)
	}

	var payload types.PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payment header is not valid JSON: %w", err)
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return &payload, nil
}

// EncodePaymentHeader is the inverse of decodePaymentHeader. Exposed for
// clients and tests constructing proofs.
func EncodePaymentHeader(payload *types.PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
