package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cronosai/opsgate/clients"
	"github.com/cronosai/opsgate/types"
)

// Renderer turns a capability result into human-readable text. Rendering is
// best-effort: implementations may fail or time out, and the orchestrator
// falls back to deterministic templates.
type Renderer interface {
	Render(ctx context.Context, capability string, result *types.CapabilityResult) (string, error)
}

// systemPrompt frames the text-generation collaborator as a cautious
// security assistant that informs rather than decides.
const systemPrompt = `You are an on-chain security assistant for Cronos users.

## Your role
You help users make informed decisions about contracts and transactions.
You do NOT decide for them. You give them information.

## Strict rules

1. NEVER say "it is safe" or "100% trustworthy"
   - Say "no known risk signals detected"

2. ALWAYS include limitations
   - "This analysis is indicative"
   - "Based on public data"

3. NEVER recommend specific financial actions
   - NOT: "You should invest in X"
   - YES: "Here is the data, the decision is yours"

4. If risk is high, be PROMINENT about it
   - "ATTENTION: risk signals detected"

## Response format
- Simple, non-technical language
- Bullets for lists
- Warnings prominently highlighted`

// capabilityPrompts gives each capability a tailored formatting instruction.
var capabilityPrompts = map[string]string{
	"contract-scan":    "Summarize this contract risk scan for a non-technical user. Lead with the risk level.",
	"wallet-approvals": "Summarize these token approvals for a non-technical user. Lead with any high risk approvals.",
	"tx-simulate":      "Summarize this swap simulation for a non-technical user. Lead with what they put in and what they would get out.",
}

const genericPrompt = "Summarize this analysis result for a non-technical user."

// TextRenderer renders results through an external text-generation service.
type TextRenderer struct {
	generator clients.TextGenerator
}

// NewTextRenderer wraps a text-generation client as a Renderer.
func NewTextRenderer(generator clients.TextGenerator) *TextRenderer {
	return &TextRenderer{generator: generator}
}

// Render serializes the result and asks the generator for a summary.
func (r *TextRenderer) Render(ctx context.Context, capability string, result *types.CapabilityResult) (string, error) {
	instruction, ok := capabilityPrompts[capability]
	if !ok {
		instruction = genericPrompt
	}

	serialized, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize result: %w", err)
	}

	prompt := fmt.Sprintf("%s\n\nCapability: %s\nResult:\n%s", instruction, capability, serialized)
	return r.generator.Complete(ctx, systemPrompt, prompt)
}
