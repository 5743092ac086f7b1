// Package network is the single source of truth for Cronos network
// constants: chain ids, RPC and explorer endpoints, the x402 facilitator,
// and the payment token per network mode.
package network

// Mode selects between the Cronos testnet and mainnet deployments.
type Mode string

const (
	Testnet Mode = "testnet"
	Mainnet Mode = "mainnet"
)

// Valid reports whether the mode is a recognized network mode.
func (m Mode) Valid() bool {
	return m == Testnet || m == Mainnet
}

func (m Mode) String() string {
	return string(m)
}

// Token describes an ERC-20 token used for payment or swaps.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// Config bundles every network-dependent constant for one mode.
type Config struct {
	Mode           Mode   `json:"mode"`
	NetworkID      string `json:"networkId"`
	ChainID        int64  `json:"chainId"`
	RPCURL         string `json:"rpcUrl"`
	ExplorerURL    string `json:"explorerUrl"`
	ExplorerAPIURL string `json:"explorerApiUrl"`
	FacilitatorURL string `json:"facilitatorUrl"`
	PaymentToken   Token  `json:"paymentToken"`
	NativeToken    Token  `json:"nativeToken"`
	VVSRouter      string `json:"vvsRouter"`
	VVSFactory     string `json:"vvsFactory"`
}

// FacilitatorURL is shared by both networks; the network id travels in each
// request.
const FacilitatorURL = "https://facilitator.cronoslabs.org/v2/x402"

// VVS Finance deploys the same router and factory addresses on both networks.
const (
	vvsRouter  = "0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae"
	vvsFactory = "0x3B44B2a187a7b3824131F8db5a74194D0a42Fc15"
)

var configs = map[Mode]Config{
	Testnet: {
		Mode:           Testnet,
		NetworkID:      "cronos-testnet",
		ChainID:        338,
		RPCURL:         "https://evm-t3.cronos.org",
		ExplorerURL:    "https://explorer.cronos.org/testnet",
		ExplorerAPIURL: "https://api-testnet.cronoscan.com/api",
		FacilitatorURL: FacilitatorURL,
		PaymentToken: Token{
			// devUSDCe implements EIP-3009 on testnet.
			Address:  "0xc01efAaF7C5C61bEbFAeb358E1161b537b8bC0e0",
			Symbol:   "devUSDCe",
			Name:     "Dev Bridged USDC (Stargate)",
			Decimals: 6,
		},
		NativeToken: Token{Symbol: "TCRO", Name: "Test CRO", Decimals: 18},
		VVSRouter:   vvsRouter,
		VVSFactory:  vvsFactory,
	},
	Mainnet: {
		Mode:           Mainnet,
		NetworkID:      "cronos-mainnet",
		ChainID:        25,
		RPCURL:         "https://evm.cronos.org",
		ExplorerURL:    "https://cronoscan.com",
		ExplorerAPIURL: "https://api.cronoscan.com/api",
		FacilitatorURL: FacilitatorURL,
		PaymentToken: Token{
			Address:  "0xf951eC28187D9E5Ca673Da8FE6757E6f0Be5F77C",
			Symbol:   "USDCe",
			Name:     "Bridged USDC (Stargate)",
			Decimals: 6,
		},
		NativeToken: Token{Symbol: "CRO", Name: "Cronos", Decimals: 18},
		VVSRouter:   vvsRouter,
		VVSFactory:  vvsFactory,
	},
}

// ForMode returns the full constant set for a network mode. Unknown modes
// fall back to testnet, the safe default.
func ForMode(m Mode) Config {
	if cfg, ok := configs[m]; ok {
		return cfg
	}
	return configs[Testnet]
}
