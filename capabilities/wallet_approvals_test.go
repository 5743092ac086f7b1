package capabilities

import (
	"context"
	"math/big"
	"testing"

	"github.com/cronosai/opsgate/types"
)

const walletAddr = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"

func TestClassifyApprovalRisk(t *testing.T) {
	tests := []struct {
		name      string
		unlimited bool
		verified  bool
		known     bool
		want      types.RiskLevel
	}{
		{"unlimited to unknown unverified", true, false, false, types.RiskHigh},
		{"unlimited to known unverified", true, false, true, types.RiskMedium},
		{"limited to unknown unverified", false, false, false, types.RiskMedium},
		{"unlimited to verified", true, true, true, types.RiskLow},
		{"limited to verified", false, true, true, types.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyApprovalRisk(tt.unlimited, tt.verified, tt.known); got != tt.want {
				t.Errorf("classifyApprovalRisk(%v,%v,%v) = %s, want %s",
					tt.unlimited, tt.verified, tt.known, got, tt.want)
			}
		})
	}
}

func TestFormatApprovalAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		want     string
	}{
		{"unlimited sentinel", new(big.Int).Set(maxUint256), 6, "Unlimited"},
		{"whole units", big.NewInt(2000000), 6, "2"},
		{"fractional", big.NewInt(1500000), 6, "1.5000"},
		{"truncated to four places", big.NewInt(123456789), 6, "123.4567"},
		{"sub-unit", big.NewInt(2500), 6, "0.0025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatApprovalAmount(tt.amount, tt.decimals); got != tt.want {
				t.Errorf("formatApprovalAmount = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSortByRisk(t *testing.T) {
	approvals := []ApprovalInfo{
		{Token: "a", Risk: types.RiskLow},
		{Token: "b", Risk: types.RiskHigh},
		{Token: "c", Risk: types.RiskMedium},
		{Token: "d", Risk: types.RiskHigh},
	}
	sortByRisk(approvals)

	want := []string{"b", "d", "c", "a"}
	for i, token := range want {
		if approvals[i].Token != token {
			t.Errorf("position %d = %s, want %s (stable high-first order)", i, approvals[i].Token, token)
		}
	}
}

func TestWalletApprovalsSampleFallback(t *testing.T) {
	cap := newWalletApprovals(testDeps(&stubChain{online: false}, &stubExplorer{}))

	result, err := cap.Executor.Execute(context.Background(), &addressInput{Address: walletAddr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatal("offline fallback must still succeed")
	}

	data := result.Data.(WalletApprovalsData)
	if data.Wallet != walletAddr {
		t.Errorf("wallet = %s, want the requested address", data.Wallet)
	}
	if data.TotalApprovals != 2 || data.HighRiskCount != 1 {
		t.Errorf("sample data = %d total / %d high risk, want 2/1",
			data.TotalApprovals, data.HighRiskCount)
	}

	var sawSample, sawDanger bool
	for _, w := range result.Warnings {
		if w.Level == types.WarnInfo {
			sawSample = true
		}
		if w.Level == types.WarnDanger {
			sawDanger = true
		}
	}
	if !sawSample {
		t.Error("sample fallback must be disclosed with an info warning")
	}
	if !sawDanger {
		t.Error("high risk approvals must raise a danger warning")
	}
}

func TestWalletApprovalsLiveMatrix(t *testing.T) {
	const (
		usdc      = "0xc21223249ca28397b4b6541dffaecc539bff0c59"
		vvsRouter = "0x145863eb42cf62847a6ca784e6416c1682b1b2ae"
	)

	chain := &stubChain{
		online: true,
		allowances: map[string]*big.Int{
			usdc + "|" + vvsRouter: big.NewInt(5000000),
		},
	}

	cap := newWalletApprovals(testDeps(chain, &stubExplorer{}))

	result, err := cap.Executor.Execute(context.Background(), &addressInput{Address: walletAddr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := result.Data.(WalletApprovalsData)
	if data.TotalApprovals != 1 {
		t.Fatalf("totalApprovals = %d, want 1", data.TotalApprovals)
	}

	a := data.Approvals[0]
	if a.Token != "USDC" || a.SpenderName != "VVS Finance Router" {
		t.Errorf("approval = %+v, want USDC to VVS Finance Router", a)
	}
	if a.IsUnlimited || a.Risk != types.RiskLow {
		t.Errorf("approval risk = %s unlimited=%v, want limited low risk", a.Risk, a.IsUnlimited)
	}
	if a.AmountFormatted != "5" {
		t.Errorf("amountFormatted = %q, want 5", a.AmountFormatted)
	}
	if data.HighRiskCount != 0 || len(result.Warnings) != 0 {
		t.Errorf("unexpected risk flags: %+v", result.Warnings)
	}
}

func TestWalletApprovalsUnlimitedToVerifiedSpender(t *testing.T) {
	const (
		wcro     = "0x5c7f8a570d578ed84e63fdfa7b1ee72deae1ae23"
		tectonic = "0xeadf7c01da7e93fdb5f16b0aa9ee85f978e89e95"
	)

	chain := &stubChain{
		online: true,
		allowances: map[string]*big.Int{
			wcro + "|" + tectonic: new(big.Int).Set(maxUint256),
		},
	}

	cap := newWalletApprovals(testDeps(chain, &stubExplorer{}))

	result, err := cap.Executor.Execute(context.Background(), &addressInput{Address: walletAddr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := result.Data.(WalletApprovalsData)
	if data.TotalApprovals != 1 {
		t.Fatalf("totalApprovals = %d, want 1", data.TotalApprovals)
	}

	a := data.Approvals[0]
	if !a.IsUnlimited || a.AmountFormatted != "Unlimited" {
		t.Errorf("approval = %+v, want unlimited", a)
	}
	// Unlimited to a known verified lending contract stays low risk.
	if a.Risk != types.RiskLow {
		t.Errorf("risk = %s, want low for a verified known spender", a.Risk)
	}
}
