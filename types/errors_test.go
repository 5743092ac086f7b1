package types

import "testing"

func TestCapabilityErrorImplementsError(t *testing.T) {
	err := NewCapabilityError(ErrSameToken, "same token", "Cannot swap a token for itself", true)
	if err.Error() != "same token" {
		t.Errorf("Error() = %q, want the internal message", err.Error())
	}
}

func TestWithReturnsCopy(t *testing.T) {
	custom := ErrCapabilityUnknown.With("Capability 'x' does not exist.")

	if custom.UserMessage != "Capability 'x' does not exist." {
		t.Errorf("UserMessage = %q", custom.UserMessage)
	}
	if custom.Code != ErrCapabilityNotFound {
		t.Errorf("Code = %q, want inherited from the template", custom.Code)
	}
	// The shared template must stay untouched.
	if ErrCapabilityUnknown.UserMessage != "This capability does not exist." {
		t.Errorf("template mutated: %q", ErrCapabilityUnknown.UserMessage)
	}
}

func TestPaymentPayloadValidate(t *testing.T) {
	valid := PaymentPayload{X402Version: X402Version, Scheme: "exact", Network: "cronos-testnet", Payload: "proof"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*PaymentPayload)
	}{
		{"zero version", func(p *PaymentPayload) { p.X402Version = 0 }},
		{"empty proof", func(p *PaymentPayload) { p.Payload = "" }},
		{"empty network", func(p *PaymentPayload) { p.Network = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPaymentRequirementsValidate(t *testing.T) {
	valid := PaymentRequirements{
		Scheme:            "exact",
		Network:           "cronos-testnet",
		MaxAmountRequired: "10000",
		Resource:          "/capability/contract-scan",
		PayTo:             "0xrecipient",
		Asset:             "0xasset",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid requirements rejected: %v", err)
	}

	missing := valid
	missing.Resource = ""
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing resource")
	}
}
