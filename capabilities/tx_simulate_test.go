package capabilities

import (
	"context"
	"math"
	"math/big"
	"strconv"
	"strings"
	"testing"

	"github.com/cronosai/opsgate/types"
)

func swapInput(action, tokenIn, tokenOut string, amount float64) *txSimulateInput {
	in := &txSimulateInput{Action: action}
	in.Params.TokenIn = tokenIn
	in.Params.TokenOut = tokenOut
	in.Params.Amount = amount
	return in
}

func TestResolveSwapToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"CRO", "CRO", true},
		{"usdc", "USDC", true},
		{"Vvs", "VVS", true},
		{"0xc21223249CA28397B4B6541dfFaEcC539BfF0c59", "USDC", true},
		{"0xC21223249CA28397B4B6541DFFAECC539BFF0C59", "USDC", true},
		{"SHIB", "", false},
		{"0x0000000000000000000000000000000000000000", "", false},
	}
	for _, tt := range tests {
		token, ok := resolveSwapToken(tt.in)
		if ok != tt.ok {
			t.Errorf("resolveSwapToken(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && token.Symbol != tt.want {
			t.Errorf("resolveSwapToken(%q) = %s, want %s", tt.in, token.Symbol, tt.want)
		}
	}
}

func TestReferenceRate(t *testing.T) {
	if got := referenceRate("CRO", "USDC"); math.Abs(got-0.098) > 1e-9 {
		t.Errorf("CRO/USDC rate = %v, want 0.098", got)
	}
	if got := referenceRate("USDC", "USDT"); got != 1 {
		t.Errorf("stable/stable rate = %v, want 1", got)
	}
	if got := referenceRate("UNKNOWN", "ALSO_UNKNOWN"); got != 1 {
		t.Errorf("unknown pair rate = %v, want parity default", got)
	}
}

func TestTxSimulateUnsupportedAction(t *testing.T) {
	cap := newTxSimulate(testDeps(&stubChain{}, &stubExplorer{}))

	_, err := cap.Executor.Execute(context.Background(), swapInput("transfer", "CRO", "USDC", 10))
	capErr, ok := err.(*types.CapabilityError)
	if !ok {
		t.Fatalf("error type = %T, want *types.CapabilityError", err)
	}
	if capErr.Code != types.ErrUnsupportedAction {
		t.Errorf("code = %s, want UNSUPPORTED_ACTION", capErr.Code)
	}
}

func TestTxSimulateUnknownToken(t *testing.T) {
	cap := newTxSimulate(testDeps(&stubChain{}, &stubExplorer{}))

	_, err := cap.Executor.Execute(context.Background(), swapInput("swap", "SHIB", "USDC", 10))
	capErr, ok := err.(*types.CapabilityError)
	if !ok {
		t.Fatalf("error type = %T, want *types.CapabilityError", err)
	}
	if capErr.Code != types.ErrTokenNotFound {
		t.Errorf("code = %s, want TOKEN_NOT_FOUND", capErr.Code)
	}
	// The supported list is stable output, alphabetical.
	if !strings.Contains(capErr.UserMessage, "CRO, DAI, USDC, USDT, VVS, WCRO") {
		t.Errorf("message = %q, want the sorted supported token list", capErr.UserMessage)
	}
}

func TestTxSimulateSameToken(t *testing.T) {
	cap := newTxSimulate(testDeps(&stubChain{}, &stubExplorer{}))

	// CRO resolves to the wrapped token address, so CRO->WCRO is the same
	// asset on both sides.
	_, err := cap.Executor.Execute(context.Background(), swapInput("swap", "CRO", "WCRO", 10))
	capErr, ok := err.(*types.CapabilityError)
	if !ok {
		t.Fatalf("error type = %T, want *types.CapabilityError", err)
	}
	if capErr.Code != types.ErrSameToken {
		t.Errorf("code = %s, want SAME_TOKEN", capErr.Code)
	}
	if capErr.UserMessage != "Cannot swap a token for itself" {
		t.Errorf("message = %q", capErr.UserMessage)
	}
}

func TestTxSimulateOfflineFallbackQuote(t *testing.T) {
	cap := newTxSimulate(testDeps(&stubChain{online: false}, &stubExplorer{}))

	result, err := cap.Executor.Execute(context.Background(), swapInput("swap", "CRO", "USDC", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := result.Data.(SimulationData)
	// 100 * 0.098 reference rate * 0.997 pool fee.
	want := 100 * 0.098 * 0.997
	got, err := strconv.ParseFloat(data.Output.Amount, 64)
	if err != nil {
		t.Fatalf("parsing output amount %q: %v", data.Output.Amount, err)
	}
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("output = %v, want %v", got, want)
	}

	var disclosed bool
	for _, w := range result.Warnings {
		if w.Level == types.WarnInfo && strings.Contains(w.Message, "estimated data") {
			disclosed = true
		}
	}
	if !disclosed {
		t.Error("mock quoting must be disclosed with an info warning")
	}

	if data.Dex != "VVS Finance" || len(data.Route) != 2 {
		t.Errorf("data = %+v, want VVS route of 2 hops", data)
	}
}

func TestTxSimulateLiveQuote(t *testing.T) {
	// Router quotes 9.9 USDC for the input; last element of amountsOut wins.
	chain := &stubChain{
		online:     true,
		pairExists: true,
		amountsOut: []*big.Int{big.NewInt(100000000000000000), big.NewInt(9900000)},
	}
	cap := newTxSimulate(testDeps(chain, &stubExplorer{}))

	result, err := cap.Executor.Execute(context.Background(), swapInput("swap", "CRO", "USDC", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := result.Data.(SimulationData)
	if data.Output.AmountFormatted != "9.9000 USDC" {
		t.Errorf("output = %q, want 9.9000 USDC", data.Output.AmountFormatted)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w.Message, "estimated data") {
			t.Error("live quote must not carry the mock disclosure")
		}
	}
}

func TestTxSimulateLargeAmountWarning(t *testing.T) {
	cap := newTxSimulate(testDeps(&stubChain{online: false}, &stubExplorer{}))

	result, err := cap.Executor.Execute(context.Background(), swapInput("swap", "CRO", "USDC", 50000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, w := range result.Warnings {
		if strings.Contains(w.Message, "splitting") {
			found = true
		}
	}
	if !found {
		t.Error("large CRO amounts must suggest splitting the operation")
	}
}

func TestAtomicConversionRoundtrip(t *testing.T) {
	atomic := toAtomic(1.5, 18)
	if atomic.String() != "1500000000000000000" {
		t.Errorf("toAtomic(1.5, 18) = %s", atomic)
	}
	if got := fromAtomic(atomic, 18); got != 1.5 {
		t.Errorf("fromAtomic roundtrip = %v, want 1.5", got)
	}
}
