package capabilities

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/types"
)

var walletApprovalsLimitations = []string{
	"Risk classification is estimated",
	"Does not cover all permission types",
	"New contracts may not be classified",
}

// ApprovalInfo describes one active token approval.
type ApprovalInfo struct {
	Token           string          `json:"token"`
	TokenAddress    string          `json:"tokenAddress"`
	Spender         string          `json:"spender"`
	SpenderName     string          `json:"spenderName"`
	SpenderVerified bool            `json:"spenderVerified"`
	Amount          string          `json:"amount"`
	AmountFormatted string          `json:"amountFormatted"`
	IsUnlimited     bool            `json:"isUnlimited"`
	Risk            types.RiskLevel `json:"risk"`
}

// WalletApprovalsData is the wallet-approvals output payload.
type WalletApprovalsData struct {
	Wallet         string         `json:"wallet"`
	TotalApprovals int            `json:"totalApprovals"`
	HighRiskCount  int            `json:"highRiskCount"`
	Approvals      []ApprovalInfo `json:"approvals"`
}

type walletApprovals struct {
	deps Deps
}

func newWalletApprovals(deps Deps) *registry.Capability {
	wa := &walletApprovals{deps: deps}
	return &registry.Capability{
		Slug:        SlugWalletApprovals,
		Name:        "Wallet Approvals",
		Description: "List active token approvals and identify risky spenders",
		Price:       "$0.02",
		PriceUSD:    price("0.02"),
		Limitations: walletApprovalsLimitations,
		NewInput:    func() any { return &addressInput{} },
		Executor:    wa,
	}
}

// Execute checks the known-token x known-spender allowance matrix for the
// wallet. When the RPC node is unreachable, a representative sample dataset
// is returned instead so the capability stays demonstrable.
func (wa *walletApprovals) Execute(ctx context.Context, input any) (*types.CapabilityResult, error) {
	in := input.(*addressInput)
	wallet := in.Address

	wa.deps.Log.Info("checking approvals", map[string]any{"wallet": wallet})

	if _, err := wa.deps.Chain.BlockNumber(ctx); err != nil {
		wa.deps.Log.Warn("rpc unreachable, returning sample approvals", map[string]any{
			"error": err.Error(),
		})
		return wa.sampleResult(wallet), nil
	}

	var approvals []ApprovalInfo
	for tokenAddr, token := range knownTokens {
		for spenderAddr := range knownSpenders {
			allowance, err := wa.deps.Chain.Allowance(ctx, tokenAddr, wallet, spenderAddr)
			if err != nil {
				wa.deps.Log.Warn("allowance check failed", map[string]any{
					"token":   token.Symbol,
					"spender": spenderAddr,
					"error":   err.Error(),
				})
				continue
			}
			if allowance == nil || allowance.Sign() <= 0 {
				continue
			}

			spender := wa.spenderInfo(ctx, spenderAddr)
			unlimited := allowance.Cmp(maxUint256) == 0

			approvals = append(approvals, ApprovalInfo{
				Token:           token.Symbol,
				TokenAddress:    tokenAddr,
				Spender:         spenderAddr,
				SpenderName:     spender.name,
				SpenderVerified: spender.verified,
				Amount:          allowance.String(),
				AmountFormatted: formatApprovalAmount(allowance, token.Decimals),
				IsUnlimited:     unlimited,
				Risk:            classifyApprovalRisk(unlimited, spender.verified, spender.known),
			})
		}
	}

	sortByRisk(approvals)
	return wa.buildResult(wallet, approvals, nil), nil
}

type resolvedSpender struct {
	name     string
	verified bool
	known    bool
}

// spenderInfo resolves a spender against the curated database first, the
// explorer second.
func (wa *walletApprovals) spenderInfo(ctx context.Context, spenderAddr string) resolvedSpender {
	if s, ok := knownSpenders[spenderAddr]; ok {
		return resolvedSpender{name: s.Name, verified: s.Verified, known: true}
	}

	info, err := wa.deps.Explorer.ContractInfo(ctx, spenderAddr)
	if err != nil {
		return resolvedSpender{name: "Unknown"}
	}
	name := info.ContractName
	if name == "" {
		name = "Unknown Contract"
	}
	return resolvedSpender{name: name, verified: info.Verified}
}

func (wa *walletApprovals) buildResult(wallet string, approvals []ApprovalInfo, extra []types.Warning) *types.CapabilityResult {
	if approvals == nil {
		approvals = []ApprovalInfo{}
	}

	highRisk := 0
	for _, a := range approvals {
		if a.Risk == types.RiskHigh {
			highRisk++
		}
	}

	warnings := append([]types.Warning{}, extra...)
	if highRisk > 0 {
		warnings = append(warnings, types.Warning{
			Level:   types.WarnDanger,
			Message: fmt.Sprintf("You have %d high risk approval%s", highRisk, plural(highRisk)),
		})
	}

	wa.deps.Log.Info("approvals check complete", map[string]any{
		"wallet":   wallet,
		"total":    len(approvals),
		"highRisk": highRisk,
	})

	return &types.CapabilityResult{
		Success: true,
		Data: WalletApprovalsData{
			Wallet:         wallet,
			TotalApprovals: len(approvals),
			HighRiskCount:  highRisk,
			Approvals:      approvals,
		},
		Warnings:    warnings,
		Limitations: walletApprovalsLimitations,
	}
}

// sampleResult is the RPC-unavailable fallback dataset.
func (wa *walletApprovals) sampleResult(wallet string) *types.CapabilityResult {
	approvals := []ApprovalInfo{
		{
			Token:           "WCRO",
			TokenAddress:    "0x5c7f8a570d578ed84e63fdfa7b1ee72deae1ae23",
			Spender:         "0x0000000000000000000000000000000000000001",
			SpenderName:     "Unknown",
			Amount:          maxUint256.String(),
			AmountFormatted: "Unlimited",
			IsUnlimited:     true,
			Risk:            types.RiskHigh,
		},
		{
			Token:           "USDC",
			TokenAddress:    "0xc21223249ca28397b4b6541dffaecc539bff0c59",
			Spender:         "0x145863eb42cf62847a6ca784e6416c1682b1b2ae",
			SpenderName:     "VVS Finance Router",
			SpenderVerified: true,
			Amount:          maxUint256.String(),
			AmountFormatted: "Unlimited",
			IsUnlimited:     true,
			Risk:            types.RiskLow,
		},
	}

	return wa.buildResult(wallet, approvals, []types.Warning{{
		Level:   types.WarnInfo,
		Message: "Sample data - connect to Cronos for live results",
	}})
}

// classifyApprovalRisk applies the spender trust heuristic: unlimited
// approvals to unknown unverified contracts are high risk, partially trusted
// combinations medium, known verified spenders low.
func classifyApprovalRisk(unlimited, spenderVerified, spenderKnown bool) types.RiskLevel {
	if unlimited && !spenderVerified && !spenderKnown {
		return types.RiskHigh
	}
	if (unlimited && !spenderVerified) || (!spenderKnown && !spenderVerified) {
		return types.RiskMedium
	}
	return types.RiskLow
}

// formatApprovalAmount renders an allowance in token units with up to four
// decimal places; the max uint256 sentinel renders as Unlimited.
func formatApprovalAmount(amount *big.Int, decimals int) string {
	if amount.Cmp(maxUint256) == 0 {
		return "Unlimited"
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, remainder := new(big.Int).DivMod(amount, divisor, new(big.Int))

	if remainder.Sign() == 0 {
		return whole.String()
	}

	frac := fmt.Sprintf("%0*s", decimals, remainder.String())
	if len(frac) > 4 {
		frac = frac[:4]
	}
	return fmt.Sprintf("%s.%s", whole.String(), frac)
}

func sortByRisk(approvals []ApprovalInfo) {
	order := map[types.RiskLevel]int{types.RiskHigh: 3, types.RiskMedium: 2, types.RiskLow: 1}
	sort.SliceStable(approvals, func(i, j int) bool {
		return order[approvals[i].Risk] > order[approvals[j].Risk]
	})
}
