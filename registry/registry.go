// Package registry holds the set of invocable capabilities. The registry is
// built once at startup, injected into the payment gate and the
// orchestrator, and read-only afterwards.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cronosai/opsgate/logger"
	"github.com/cronosai/opsgate/types"
)

// Executor is the uniform interface every capability implements. Execute
// must be idempotent from the caller's perspective and must not fail for
// expected domain conditions; those map to successful results carrying
// warnings.
type Executor interface {
	Execute(ctx context.Context, input any) (*types.CapabilityResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, input any) (*types.CapabilityResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, input any) (*types.CapabilityResult, error) {
	return f(ctx, input)
}

// Capability is the descriptor for one priced operation. Slug and price are
// immutable for the process lifetime once registered.
type Capability struct {
	Slug        string
	Name        string
	Description string

	// Price is the display form ("$0.01"); PriceUSD the exact decimal value.
	Price    string
	PriceUSD decimal.Decimal

	// Limitations are static disclaimers copied into every result. Never
	// empty after registration.
	Limitations []string

	// NewInput returns a fresh pointer to the capability's input struct,
	// carrying validate tags for the registry's input contract.
	NewInput func() any

	Executor Executor
}

// AtomicAmount converts the USD price into atomic units of a token with the
// given number of decimals, as a string suitable for a payment challenge.
func (c *Capability) AtomicAmount(decimals int) string {
	return c.PriceUSD.Shift(int32(decimals)).Truncate(0).String()
}

// Info is the public descriptor metadata, without the executor reference.
type Info struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Limitations []string `json:"limitations"`
}

// Registry maps capability slugs to descriptors, preserving insertion order
// for the public catalogue.
type Registry struct {
	mu    sync.RWMutex
	log   logger.Logger
	caps  map[string]*Capability
	order []string
}

// New creates an empty registry.
func New(log logger.Logger) *Registry {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Registry{
		log:  log,
		caps: make(map[string]*Capability),
	}
}

// Register adds a capability keyed by slug. Registering an existing slug
// replaces the previous descriptor; last registration wins and the override
// is logged as a warning, not an error.
func (r *Registry) Register(c *Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.caps[c.Slug]; exists {
		r.log.Warn("overwriting capability", map[string]any{"slug": c.Slug})
	} else {
		r.order = append(r.order, c.Slug)
	}
	r.caps[c.Slug] = c

	r.log.Info("registered capability", map[string]any{
		"slug":  c.Slug,
		"price": c.Price,
	})
}

// Get returns the capability for a slug, reporting absence.
func (r *Registry) Get(slug string) (*Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[slug]
	return c, ok
}

// Has reports whether a slug is registered.
func (r *Registry) Has(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.caps[slug]
	return ok
}

// List returns public metadata for every capability in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.order))
	for _, slug := range r.order {
		c := r.caps[slug]
		infos = append(infos, Info{
			Slug:        c.Slug,
			Name:        c.Name,
			Description: c.Description,
			Price:       c.Price,
			Limitations: c.Limitations,
		})
	}
	return infos
}

// ParseInput unmarshals and validates raw JSON against the capability's
// input contract, returning the typed input or an INVALID_INPUT error
// carrying the first failing field's message.
func (r *Registry) ParseInput(c *Capability, raw json.RawMessage) (any, error) {
	input := c.NewInput()

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, input); err != nil {
			return nil, types.NewCapabilityError(
				types.ErrInvalidInput,
				fmt.Sprintf("malformed input JSON: %v", err),
				"Request body is not valid JSON for this capability.",
				true,
			)
		}
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}
	return input, nil
}
