package capabilities

import (
	"context"
	"fmt"

	"github.com/cronosai/opsgate/clients"
	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/types"
)

var contractScanLimitations = []string{
	"Does not guarantee 100% safety",
	"Based on heuristics and public data",
	"New contracts may lack history",
}

// Risk signal weights. The aggregate score is capped at 100.
const (
	weightNotVerified    = 30
	weightNewContract7d  = 25
	weightNewContract30d = 15
	weightLowActivity    = 15
	weightVeryLowTx      = 20
	weightIsProxy        = 5
)

// ContractScanData is the contract-scan output payload.
type ContractScanData struct {
	Address      string          `json:"address"`
	IsContract   bool            `json:"isContract"`
	Verified     bool            `json:"verified"`
	ContractName string          `json:"contractName,omitempty"`
	AgeDays      int             `json:"ageDays"`
	TxCount      int             `json:"txCount"`
	IsProxy      bool            `json:"isProxy"`
	RiskScore    int             `json:"riskScore"`
	RiskLevel    types.RiskLevel `json:"riskLevel"`
	Signals      []types.Signal  `json:"signals"`
}

type contractScan struct {
	deps Deps
}

func newContractScan(deps Deps) *registry.Capability {
	cs := &contractScan{deps: deps}
	return &registry.Capability{
		Slug:        SlugContractScan,
		Name:        "Contract Scan",
		Description: "Analyze a smart contract for risk signals and red flags",
		Price:       "$0.01",
		PriceUSD:    price("0.01"),
		Limitations: contractScanLimitations,
		NewInput:    func() any { return &addressInput{} },
		Executor:    cs,
	}
}

// Execute scans one address. An address without code is an expected domain
// condition and produces a successful result with an informational warning,
// not an error.
func (cs *contractScan) Execute(ctx context.Context, input any) (*types.CapabilityResult, error) {
	in := input.(*addressInput)
	address := in.Address

	cs.deps.Log.Info("scanning contract", map[string]any{"address": address})

	isContract, err := cs.deps.Chain.IsContract(ctx, address)
	if err != nil {
		cs.deps.Log.Warn("contract code lookup failed", map[string]any{
			"address": address,
			"error":   err.Error(),
		})
		isContract = false
	}

	if !isContract {
		return &types.CapabilityResult{
			Success: true,
			Data: ContractScanData{
				Address:   address,
				RiskLevel: types.RiskLow,
				Signals:   []types.Signal{},
			},
			Warnings: []types.Warning{{
				Level:   types.WarnInfo,
				Message: "This address is not a contract, it is a regular wallet (EOA)",
			}},
			Limitations: contractScanLimitations,
		}, nil
	}

	info, err := cs.deps.Explorer.ContractInfo(ctx, address)
	if err != nil {
		if capErr, ok := err.(*types.CapabilityError); ok {
			return nil, capErr
		}
		return nil, types.ErrExplorerUnavailable
	}

	signals := analyzeContract(info)
	score := riskScore(signals)
	level := riskLevel(score)

	cs.deps.Log.Info("contract scan complete", map[string]any{
		"address":   address,
		"riskScore": score,
		"riskLevel": string(level),
	})

	return &types.CapabilityResult{
		Success: true,
		Data: ContractScanData{
			Address:      address,
			IsContract:   true,
			Verified:     info.Verified,
			ContractName: info.ContractName,
			AgeDays:      info.AgeDays,
			TxCount:      info.TxCount,
			IsProxy:      info.IsProxy,
			RiskScore:    score,
			RiskLevel:    level,
			Signals:      signals,
		},
		Warnings:    signalWarnings(signals),
		Limitations: contractScanLimitations,
	}, nil
}

// analyzeContract turns explorer metadata into weighted risk signals plus
// zero-weight positive signals.
func analyzeContract(info *clients.ContractInfo) []types.Signal {
	var signals []types.Signal

	if !info.Verified {
		signals = append(signals, types.Signal{
			Type:    "warning",
			Code:    "NOT_VERIFIED",
			Message: "Contract not verified on explorer",
			Weight:  weightNotVerified,
		})
	}

	switch {
	case info.AgeDays < 7:
		signals = append(signals, types.Signal{
			Type:    "warning",
			Code:    "NEW_CONTRACT",
			Message: fmt.Sprintf("Contract created %s ago", days(info.AgeDays)),
			Weight:  weightNewContract7d,
		})
	case info.AgeDays < 30:
		signals = append(signals, types.Signal{
			Type:    "info",
			Code:    "RECENT_CONTRACT",
			Message: fmt.Sprintf("Contract created %d days ago", info.AgeDays),
			Weight:  weightNewContract30d,
		})
	}

	switch {
	case info.TxCount < 5:
		signals = append(signals, types.Signal{
			Type:    "warning",
			Code:    "VERY_LOW_ACTIVITY",
			Message: fmt.Sprintf("Only %d transaction%s recorded", info.TxCount, plural(info.TxCount)),
			Weight:  weightVeryLowTx,
		})
	case info.TxCount < 50:
		signals = append(signals, types.Signal{
			Type:    "info",
			Code:    "LOW_ACTIVITY",
			Message: fmt.Sprintf("%d transactions recorded", info.TxCount),
			Weight:  weightLowActivity,
		})
	}

	if info.IsProxy {
		signals = append(signals, types.Signal{
			Type:    "info",
			Code:    "IS_PROXY",
			Message: "This is a proxy contract (upgradeable)",
			Weight:  weightIsProxy,
		})
	}

	if info.Verified {
		msg := "Contract verified"
		if info.ContractName != "" {
			msg = fmt.Sprintf("Contract verified: %s", info.ContractName)
		}
		signals = append(signals, types.Signal{Type: "info", Code: "VERIFIED", Message: msg})
	}
	if info.AgeDays >= 180 {
		signals = append(signals, types.Signal{
			Type:    "info",
			Code:    "ESTABLISHED",
			Message: fmt.Sprintf("Contract active for %d days", info.AgeDays),
		})
	}
	if info.TxCount >= 1000 {
		signals = append(signals, types.Signal{
			Type:    "info",
			Code:    "HIGH_ACTIVITY",
			Message: fmt.Sprintf("%d transactions recorded", info.TxCount),
		})
	}

	return signals
}

func riskScore(signals []types.Signal) int {
	total := 0
	for _, s := range signals {
		total += s.Weight
	}
	if total > 100 {
		return 100
	}
	return total
}

func riskLevel(score int) types.RiskLevel {
	switch {
	case score < 20:
		return types.RiskLow
	case score < 50:
		return types.RiskMedium
	default:
		return types.RiskHigh
	}
}

func signalWarnings(signals []types.Signal) []types.Warning {
	warnings := []types.Warning{}
	for _, s := range signals {
		if s.Type == "warning" {
			warnings = append(warnings, types.Warning{
				Level:   types.WarnWarning,
				Message: s.Message,
			})
		}
	}
	return warnings
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
