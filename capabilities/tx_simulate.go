package capabilities

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cronosai/opsgate/network"
	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/types"
)

var txSimulateLimitations = []string{
	"Results may vary if state changes",
	"Does not include gas fees in calculation",
	"Only supports VVS Finance swaps",
}

// txSimulateInput is the simulation request shape.
type txSimulateInput struct {
	Action string `json:"action" validate:"required"`
	Params struct {
		TokenIn  string  `json:"token_in" validate:"required"`
		TokenOut string  `json:"token_out" validate:"required"`
		Amount   float64 `json:"amount" validate:"required,gt=0"`
	} `json:"params"`
}

// SwapLeg is one side of a simulated swap.
type SwapLeg struct {
	Token           string `json:"token"`
	Amount          string `json:"amount"`
	AmountFormatted string `json:"amountFormatted"`
}

// SimulationData is the tx-simulate output payload.
type SimulationData struct {
	Action             string   `json:"action"`
	Input              SwapLeg  `json:"input"`
	Output             SwapLeg  `json:"output"`
	ExecutionPrice     float64  `json:"executionPrice"`
	PriceImpactPercent float64  `json:"priceImpactPercent"`
	Route              []string `json:"route"`
	Dex                string   `json:"dex"`
	EstimatedGas       string   `json:"estimatedGas"`
}

type txSimulate struct {
	deps Deps
}

func newTxSimulate(deps Deps) *registry.Capability {
	ts := &txSimulate{deps: deps}
	return &registry.Capability{
		Slug:        SlugTxSimulate,
		Name:        "Tx Simulate",
		Description: "Preview swap output, price impact, and route before executing",
		Price:       "$0.03",
		PriceUSD:    price("0.03"),
		Limitations: txSimulateLimitations,
		NewInput:    func() any { return &txSimulateInput{} },
		Executor:    ts,
	}
}

// Execute simulates a swap against the VVS router, falling back to the
// static reference table when the chain is unreachable. Simulation never
// mutates chain state, so repeated calls with identical input are safe.
func (ts *txSimulate) Execute(ctx context.Context, input any) (*types.CapabilityResult, error) {
	in := input.(*txSimulateInput)

	if in.Action != "swap" {
		return nil, types.NewCapabilityError(
			types.ErrUnsupportedAction,
			fmt.Sprintf("action %q not supported", in.Action),
			"Only swap simulation is supported for now",
			true,
		)
	}

	tokenIn, ok := resolveSwapToken(in.Params.TokenIn)
	if !ok {
		return nil, ts.unknownToken(in.Params.TokenIn)
	}
	tokenOut, ok := resolveSwapToken(in.Params.TokenOut)
	if !ok {
		return nil, ts.unknownToken(in.Params.TokenOut)
	}

	if strings.EqualFold(tokenIn.Address, tokenOut.Address) {
		return nil, types.NewCapabilityError(
			types.ErrSameToken,
			"same token on both sides of swap",
			"Cannot swap a token for itself",
			true,
		)
	}

	amount := in.Params.Amount
	amountIn := toAtomic(amount, tokenIn.Decimals)

	outputAmount, usedMock := ts.quote(ctx, tokenIn, tokenOut, amount, amountIn)

	executionPrice := outputAmount / amount
	expectedRate := referenceRate(tokenIn.Symbol, tokenOut.Symbol)
	// Impact compares the router quote against the static reference table, a
	// structurally different price source. Treat the percentage as a rough
	// indicator only.
	priceImpact := math.Abs((executionPrice-expectedRate)/expectedRate) * 100

	warnings := ts.warnings(usedMock, priceImpact, amount, tokenIn.Symbol)

	ts.deps.Log.Info("swap simulated", map[string]any{
		"tokenIn":     tokenIn.Symbol,
		"tokenOut":    tokenOut.Symbol,
		"amount":      amount,
		"output":      outputAmount,
		"priceImpact": priceImpact,
		"mock":        usedMock,
	})

	outDecimals := tokenOut.Decimals
	if outDecimals > 8 {
		outDecimals = 8
	}

	return &types.CapabilityResult{
		Success: true,
		Data: SimulationData{
			Action: "swap",
			Input: SwapLeg{
				Token:           tokenIn.Symbol,
				Amount:          decimal.NewFromFloat(amount).String(),
				AmountFormatted: fmt.Sprintf("%v %s", amount, tokenIn.Symbol),
			},
			Output: SwapLeg{
				Token:           tokenOut.Symbol,
				Amount:          decimal.NewFromFloat(outputAmount).Round(int32(outDecimals)).String(),
				AmountFormatted: fmt.Sprintf("%.4f %s", outputAmount, tokenOut.Symbol),
			},
			ExecutionPrice:     executionPrice,
			PriceImpactPercent: priceImpact,
			Route:              []string{tokenIn.Symbol, tokenOut.Symbol},
			Dex:                "VVS Finance",
			EstimatedGas:       "~150,000 gas",
		},
		Warnings:    warnings,
		Limitations: txSimulateLimitations,
	}, nil
}

// quote asks the router for a live quote, routing through WCRO when no
// direct pair exists. On any chain failure it falls back to the reference
// table with the standard 0.3% pool fee applied.
func (ts *txSimulate) quote(ctx context.Context, tokenIn, tokenOut network.Token, amount float64, amountIn *big.Int) (output float64, usedMock bool) {
	net := ts.deps.Network

	if _, err := ts.deps.Chain.BlockNumber(ctx); err == nil {
		path := []string{tokenIn.Address, tokenOut.Address}

		direct, err := ts.deps.Chain.PairExists(ctx, net.VVSFactory, tokenIn.Address, tokenOut.Address)
		if err == nil && !direct && tokenIn.Symbol != "WCRO" && tokenOut.Symbol != "WCRO" {
			wcro := swapTokens["WCRO"]
			path = []string{tokenIn.Address, wcro.Address, tokenOut.Address}
			ts.deps.Log.Debug("routing swap through WCRO", nil)
		}

		amounts, err := ts.deps.Chain.AmountsOut(ctx, net.VVSRouter, amountIn, path)
		if err == nil && len(amounts) > 0 {
			return fromAtomic(amounts[len(amounts)-1], tokenOut.Decimals), false
		}
		ts.deps.Log.Warn("router quote failed, using reference prices", map[string]any{
			"error": fmt.Sprint(err),
		})
	} else {
		ts.deps.Log.Warn("rpc unreachable, using reference prices", map[string]any{
			"error": err.Error(),
		})
	}

	rate := referenceRate(tokenIn.Symbol, tokenOut.Symbol)
	return amount * rate * 0.997, true
}

func (ts *txSimulate) warnings(usedMock bool, priceImpact, amount float64, symbolIn string) []types.Warning {
	warnings := []types.Warning{}

	if usedMock {
		warnings = append(warnings, types.Warning{
			Level:   types.WarnInfo,
			Message: "Simulation based on estimated data - connect to Cronos for live quotes",
		})
	}
	if priceImpact > 1 {
		warnings = append(warnings, types.Warning{
			Level:   types.WarnWarning,
			Message: fmt.Sprintf("High price impact: %.2f%%. Consider reducing the amount.", priceImpact),
		})
	}
	if priceImpact > 5 {
		warnings = append(warnings, types.Warning{
			Level:   types.WarnDanger,
			Message: fmt.Sprintf("Very high price impact: %.2f%%. You could lose significant value.", priceImpact),
		})
	}
	if amount > 10000 && (symbolIn == "CRO" || symbolIn == "WCRO") {
		warnings = append(warnings, types.Warning{
			Level:   types.WarnInfo,
			Message: "For large amounts, consider splitting the operation",
		})
	}

	return warnings
}

func (ts *txSimulate) unknownToken(symbol string) *types.CapabilityError {
	supported := make([]string, 0, len(swapTokens))
	for s := range swapTokens {
		supported = append(supported, s)
	}
	sort.Strings(supported)
	return types.NewCapabilityError(
		types.ErrTokenNotFound,
		fmt.Sprintf("token %q not supported", symbol),
		fmt.Sprintf("Token '%s' is not supported. Available tokens: %s", symbol, strings.Join(supported, ", ")),
		true,
	)
}

// toAtomic converts a human amount to atomic token units.
func toAtomic(amount float64, decimals int) *big.Int {
	return decimal.NewFromFloat(amount).Shift(int32(decimals)).Truncate(0).BigInt()
}

// fromAtomic converts atomic token units back to a human amount.
func fromAtomic(amount *big.Int, decimals int) float64 {
	f, _ := decimal.NewFromBigInt(amount, -int32(decimals)).Float64()
	return f
}
