package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cronosai/opsgate/types"
)

// Facilitator is the external settlement service: it checks that a payment
// proof is well-formed and sufficient (verify) and finalizes the transfer so
// funds move (settle). The two calls are independent; verification has no
// durable side effect.
type Facilitator interface {
	Verify(ctx context.Context, req *types.VerifyRequest) (*types.VerificationResult, error)
	Settle(ctx context.Context, req *types.VerifyRequest) (*types.SettlementResult, error)
}

// HTTPFacilitator talks to a hosted x402 facilitator.
type HTTPFacilitator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFacilitator builds a facilitator client with a bounded timeout.
func NewHTTPFacilitator(baseURL string, timeout time.Duration) *HTTPFacilitator {
	return &HTTPFacilitator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Verify submits the proof and server-derived requirements for validation.
func (f *HTTPFacilitator) Verify(ctx context.Context, req *types.VerifyRequest) (*types.VerificationResult, error) {
	var result types.VerificationResult
	if err := f.post(ctx, "/verify", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Settle finalizes a verified payment and returns the settlement reference.
func (f *HTTPFacilitator) Settle(ctx context.Context, req *types.VerifyRequest) (*types.SettlementResult, error) {
	var result types.SettlementResult
	if err := f.post(ctx, "/settle", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (f *HTTPFacilitator) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal facilitator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("facilitator %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("facilitator %s: read response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facilitator %s: status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("facilitator %s: decode response: %w", path, err)
	}
	return nil
}
