package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cronosai/opsgate/types"
)

// FallbackRender is the deterministic renderer used when the external
// collaborator fails, times out, or is unconfigured. It is total: for any
// well-formed result, including unrecognized capability slugs, it returns
// non-empty text and never fails.
func FallbackRender(capability string, result *types.CapabilityResult) string {
	data, err := json.Marshal(result.Data)
	if err != nil {
		data = []byte("{}")
	}

	switch capability {
	case "contract-scan":
		return renderContractScan(data, result)
	case "wallet-approvals":
		return renderWalletApprovals(data, result)
	case "tx-simulate":
		return renderTxSimulate(data, result)
	default:
		return renderGeneric(data, result)
	}
}

func renderContractScan(data []byte, result *types.CapabilityResult) string {
	if !gjson.GetBytes(data, "isContract").Bool() {
		return "This address is not a smart contract, it is a regular wallet.\n\n" +
			"If you meant to analyze a contract, double-check the address."
	}

	var b strings.Builder
	b.WriteString("Analysis complete\n\n")

	address := gjson.GetBytes(data, "address").String()
	b.WriteString(fmt.Sprintf("Contract: %s\n", shortAddress(address)))

	risk := gjson.GetBytes(data, "riskLevel").String()
	b.WriteString(fmt.Sprintf("Risk: %s\n\n", strings.ToUpper(risk)))

	if risk == "high" {
		b.WriteString("ATTENTION: risk signals detected\n\n")
	}

	verified := "No"
	if gjson.GetBytes(data, "verified").Bool() {
		verified = "Yes"
	}
	b.WriteString("Details:\n")
	b.WriteString(fmt.Sprintf("- Verified: %s\n", verified))
	b.WriteString(fmt.Sprintf("- Age: %d days\n", gjson.GetBytes(data, "ageDays").Int()))
	b.WriteString(fmt.Sprintf("- Transactions: %d\n\n", gjson.GetBytes(data, "txCount").Int()))

	writeWarnings(&b, result.Warnings)
	writeReminder(&b, result.Limitations)
	return b.String()
}

func renderWalletApprovals(data []byte, result *types.CapabilityResult) string {
	var b strings.Builder
	b.WriteString("Approval analysis\n\n")

	wallet := gjson.GetBytes(data, "wallet").String()
	b.WriteString(fmt.Sprintf("Wallet: %s\n", shortAddress(wallet)))
	b.WriteString(fmt.Sprintf("Total approvals: %d\n", gjson.GetBytes(data, "totalApprovals").Int()))

	highRisk := gjson.GetBytes(data, "highRiskCount").Int()
	if highRisk > 0 {
		b.WriteString(fmt.Sprintf("\nATTENTION: %d high risk approval%s\n\n", highRisk, pluralInt(highRisk)))
	} else {
		b.WriteString("\n")
	}

	approvals := gjson.GetBytes(data, "approvals").Array()
	if len(approvals) > 0 {
		b.WriteString("Detail:\n")
		for _, a := range approvals {
			icon := "-"
			switch a.Get("risk").String() {
			case "high":
				icon = "!"
			case "medium":
				icon = "?"
			}
			b.WriteString(fmt.Sprintf("[%s] %s -> %s: %s\n",
				icon,
				a.Get("token").String(),
				a.Get("spenderName").String(),
				a.Get("amountFormatted").String()))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No active approvals found.\n\n")
	}

	writeWarnings(&b, result.Warnings)
	writeReminder(&b, result.Limitations)
	return b.String()
}

func renderTxSimulate(data []byte, result *types.CapabilityResult) string {
	var b strings.Builder
	b.WriteString("Swap simulation\n\n")

	b.WriteString(fmt.Sprintf("%s -> %s\n\n",
		gjson.GetBytes(data, "input.amountFormatted").String(),
		gjson.GetBytes(data, "output.amountFormatted").String()))

	b.WriteString(fmt.Sprintf("DEX: %s\n", gjson.GetBytes(data, "dex").String()))
	b.WriteString(fmt.Sprintf("Price impact: %.2f%%\n", gjson.GetBytes(data, "priceImpactPercent").Float()))
	b.WriteString(fmt.Sprintf("Estimated gas: %s\n\n", gjson.GetBytes(data, "estimatedGas").String()))

	writeWarnings(&b, result.Warnings)
	writeReminder(&b, result.Limitations)
	return b.String()
}

func renderGeneric(data []byte, result *types.CapabilityResult) string {
	var pretty []byte
	var obj any
	if err := json.Unmarshal(data, &obj); err == nil {
		pretty, _ = json.MarshalIndent(obj, "", "  ")
	}
	if len(pretty) == 0 {
		pretty = data
	}

	var b strings.Builder
	b.WriteString("Analysis result:\n\n")
	b.Write(pretty)
	b.WriteString("\n\n")
	writeReminder(&b, result.Limitations)
	return b.String()
}

func writeWarnings(b *strings.Builder, warnings []types.Warning) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("Warnings:\n")
	for _, w := range warnings {
		b.WriteString(fmt.Sprintf("- %s\n", w.Message))
	}
	b.WriteString("\n")
}

func writeReminder(b *strings.Builder, limitations []string) {
	reminder := "This analysis is indicative."
	if len(limitations) > 0 {
		reminder = limitations[0]
	}
	b.WriteString(fmt.Sprintf("Reminder: %s", reminder))
}

func shortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return fmt.Sprintf("%s...%s", address[:6], address[len(address)-4:])
}

func pluralInt(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}
