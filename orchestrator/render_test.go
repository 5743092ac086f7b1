package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cronosai/opsgate/types"
)

type captureGenerator struct {
	system string
	prompt string
	reply  string
	err    error
}

func (c *captureGenerator) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.system = system
	c.prompt = prompt
	return c.reply, c.err
}

func (c *captureGenerator) Ping(ctx context.Context) bool { return true }

func TestTextRendererBuildsCapabilityPrompt(t *testing.T) {
	gen := &captureGenerator{reply: "Risk is low."}
	r := NewTextRenderer(gen)

	result := &types.CapabilityResult{
		Success:     true,
		Data:        map[string]any{"riskLevel": "low"},
		Limitations: []string{"Based on heuristics"},
	}

	text, err := r.Render(context.Background(), "contract-scan", result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Risk is low." {
		t.Errorf("text = %q", text)
	}

	if !strings.Contains(gen.prompt, "contract risk scan") {
		t.Errorf("prompt missing the capability instruction:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, `"riskLevel": "low"`) {
		t.Errorf("prompt missing the serialized result:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.system, "security assistant") {
		t.Error("system prompt not forwarded")
	}
}

func TestTextRendererUnknownCapabilityUsesGenericPrompt(t *testing.T) {
	gen := &captureGenerator{reply: "Summary."}
	r := NewTextRenderer(gen)

	if _, err := r.Render(context.Background(), "future-capability", &types.CapabilityResult{Success: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompt, genericPrompt) {
		t.Errorf("prompt = %q, want the generic instruction", gen.prompt)
	}
}

func TestTextRendererPropagatesGeneratorError(t *testing.T) {
	gen := &captureGenerator{err: fmt.Errorf("overloaded")}
	r := NewTextRenderer(gen)

	if _, err := r.Render(context.Background(), "contract-scan", &types.CapabilityResult{}); err == nil {
		t.Error("expected generator error to propagate")
	}
}
