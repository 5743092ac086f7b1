// Package capabilities implements the gateway's analysis operations behind
// the uniform registry.Executor interface: contract risk scanning, wallet
// approval auditing, and swap simulation on Cronos.
package capabilities

import (
	"github.com/shopspring/decimal"

	"github.com/cronosai/opsgate/clients"
	"github.com/cronosai/opsgate/logger"
	"github.com/cronosai/opsgate/network"
	"github.com/cronosai/opsgate/registry"
)

// Slugs of the built-in capabilities.
const (
	SlugContractScan    = "contract-scan"
	SlugWalletApprovals = "wallet-approvals"
	SlugTxSimulate      = "tx-simulate"
)

// Deps bundles the collaborators the capabilities share.
type Deps struct {
	Chain    clients.Chain
	Explorer clients.Explorer
	Network  network.Config
	Log      logger.Logger
}

// RegisterAll registers every built-in capability. Called once at startup,
// before traffic is accepted.
func RegisterAll(reg *registry.Registry, deps Deps) {
	if deps.Log == nil {
		deps.Log = logger.NoopLogger{}
	}
	reg.Register(newContractScan(deps))
	reg.Register(newWalletApprovals(deps))
	reg.Register(newTxSimulate(deps))
}

func price(usd string) decimal.Decimal {
	d, _ := decimal.NewFromString(usd)
	return d
}

// addressInput is the shared input shape for address-based capabilities.
type addressInput struct {
	Address string `json:"address" validate:"required,eth_addr"`
}
