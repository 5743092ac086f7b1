package capabilities

import (
	"math/big"
	"strings"

	"github.com/cronosai/opsgate/network"
)

// maxUint256 marks an unlimited ERC-20 approval.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// spenderInfo describes a contract commonly granted token approvals.
type spenderInfo struct {
	Name     string
	Verified bool
	Category string
}

// knownSpenders is the curated database of approval targets on Cronos,
// keyed by lowercase address.
var knownSpenders = map[string]spenderInfo{
	"0x145863eb42cf62847a6ca784e6416c1682b1b2ae": {Name: "VVS Finance Router", Verified: true, Category: "DEX"},
	"0xeadf7c01da7e93fdb5f16b0aa9ee85f978e89e95": {Name: "Tectonic tCRO", Verified: true, Category: "Lending"},
	"0x543f4db9bd26c9eb6ad4dd1c33522c966c625774": {Name: "VVS Finance Factory", Verified: true, Category: "DEX"},
	"0xa111c17f8b8303280d3eb01bbcd61000aa7f39f9": {Name: "Ferro Swap", Verified: true, Category: "DEX"},
	"0x6b3595068778dd592e39a122f4f5a5cf09c90fe2": {Name: "MM Finance Router", Verified: true, Category: "DEX"},
}

// knownTokens is the curated set of common ERC-20 tokens on Cronos, keyed by
// lowercase address.
var knownTokens = map[string]network.Token{
	"0x5c7f8a570d578ed84e63fdfa7b1ee72deae1ae23": {Address: "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23", Symbol: "WCRO", Name: "Wrapped CRO", Decimals: 18},
	"0xc21223249ca28397b4b6541dffaecc539bff0c59": {Address: "0xc21223249CA28397B4B6541dfFaEcC539BfF0c59", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	"0x66e428c3f67a68878562e79a0234c1f83c208770": {Address: "0x66e428c3f67a68878562e79A0234c1F83c208770", Symbol: "USDT", Name: "Tether USD", Decimals: 6},
	"0x2d03bece6747adc00e1a131bba1469c15fd11e03": {Address: "0x2D03bECE6747ADC00E1a131BBA1469C15fD11e03", Symbol: "VVS", Name: "VVS Finance", Decimals: 18},
	"0xf2001b145b43032aaf5ee2884e456ccd805f677d": {Address: "0xF2001B145b43032AAF5Ee2884e456CCd805F677D", Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18},
}

// swapTokens maps symbols accepted by tx-simulate to token metadata. CRO is
// simulated through its wrapped form.
var swapTokens = map[string]network.Token{
	"CRO":  {Address: "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23", Symbol: "CRO", Name: "Cronos", Decimals: 18},
	"WCRO": {Address: "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23", Symbol: "WCRO", Name: "Wrapped CRO", Decimals: 18},
	"USDC": {Address: "0xc21223249CA28397B4B6541dfFaEcC539BfF0c59", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	"USDT": {Address: "0x66e428c3f67a68878562e79A0234c1F83c208770", Symbol: "USDT", Name: "Tether", Decimals: 6},
	"VVS":  {Address: "0x2D03bECE6747ADC00E1a131BBA1469C15fD11e03", Symbol: "VVS", Name: "VVS Finance", Decimals: 18},
	"DAI":  {Address: "0xF2001B145b43032AAF5Ee2884e456CCd805F677D", Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18},
}

// referencePrices is the static USD reference table used for price impact
// estimation and for mock quoting when the chain is unreachable. It is a
// separate source from the router quote; the comparison between the two is
// structural, not guaranteed to be numerically meaningful.
var referencePrices = map[string]float64{
	"CRO":  0.098,
	"WCRO": 0.098,
	"USDC": 1.0,
	"USDT": 1.0,
	"DAI":  1.0,
	"VVS":  0.000012,
}

// resolveSwapToken matches a symbol (case-insensitive) or an address against
// the supported swap tokens.
func resolveSwapToken(symbolOrAddress string) (network.Token, bool) {
	if t, ok := swapTokens[strings.ToUpper(symbolOrAddress)]; ok {
		return t, true
	}
	for _, t := range swapTokens {
		if strings.EqualFold(t.Address, symbolOrAddress) {
			return t, true
		}
	}
	return network.Token{}, false
}

// referenceRate returns the reference exchange rate between two symbols.
// Unknown symbols default to parity.
func referenceRate(tokenIn, tokenOut string) float64 {
	in, ok := referencePrices[tokenIn]
	if !ok {
		in = 1
	}
	out, ok := referencePrices[tokenOut]
	if !ok {
		out = 1
	}
	return in / out
}
