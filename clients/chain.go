// Package clients contains the gateway's outbound collaborators: the Cronos
// JSON-RPC node, the explorer API, the x402 facilitator, and the
// text-generation service. Each client carries its own bounded timeout.
package clients

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Chain is the read-only view of the Cronos chain the capabilities need.
type Chain interface {
	IsContract(ctx context.Context, address string) (bool, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
	PairExists(ctx context.Context, factory, tokenA, tokenB string) (bool, error)
	AmountsOut(ctx context.Context, router string, amountIn *big.Int, path []string) ([]*big.Int, error)
}

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const routerABI = `[
	{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}
]`

const factoryABI = `[
	{"constant":true,"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"name":"getPair","outputs":[{"name":"pair","type":"address"}],"stateMutability":"view","type":"function"}
]`

// EVMChain implements Chain over a go-ethereum RPC client.
type EVMChain struct {
	client  *ethclient.Client
	timeout time.Duration

	erc20   abi.ABI
	router  abi.ABI
	factory abi.ABI
}

// DialChain connects to a Cronos RPC endpoint.
func DialChain(rpcURL string, timeout time.Duration) (*EVMChain, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	router, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	factory, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	return &EVMChain{
		client:  client,
		timeout: timeout,
		erc20:   erc20,
		router:  router,
		factory: factory,
	}, nil
}

// IsContract reports whether the address has deployed code.
func (c *EVMChain) IsContract(ctx context.Context, address string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	code, err := c.client.CodeAt(callCtx, common.HexToAddress(address), nil)
	if err != nil {
		return false, fmt.Errorf("code lookup for %s: %w", address, err)
	}
	return len(code) > 0, nil
}

// BlockNumber returns the current head. Used as a cheap liveness probe
// before running a batch of contract calls.
func (c *EVMChain) BlockNumber(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.BlockNumber(callCtx)
}

// Allowance returns the ERC-20 allowance granted by owner to spender.
func (c *EVMChain) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	data, err := c.erc20.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("pack allowance: %w", err)
	}

	out, err := c.call(ctx, token, data)
	if err != nil {
		return nil, err
	}

	results, err := c.erc20.Unpack("allowance", out)
	if err != nil {
		return nil, fmt.Errorf("unpack allowance: %w", err)
	}
	amount, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance result is not uint256")
	}
	return amount, nil
}

// PairExists checks the DEX factory for a direct pool between two tokens.
func (c *EVMChain) PairExists(ctx context.Context, factory, tokenA, tokenB string) (bool, error) {
	data, err := c.factory.Pack("getPair", common.HexToAddress(tokenA), common.HexToAddress(tokenB))
	if err != nil {
		return false, fmt.Errorf("pack getPair: %w", err)
	}

	out, err := c.call(ctx, factory, data)
	if err != nil {
		return false, err
	}

	results, err := c.factory.Unpack("getPair", out)
	if err != nil {
		return false, fmt.Errorf("unpack getPair: %w", err)
	}
	pair, ok := results[0].(common.Address)
	if !ok {
		return false, fmt.Errorf("getPair result is not an address")
	}
	return pair != (common.Address{}), nil
}

// AmountsOut asks the DEX router what a swap along path yields.
func (c *EVMChain) AmountsOut(ctx context.Context, router string, amountIn *big.Int, path []string) ([]*big.Int, error) {
	addrs := make([]common.Address, len(path))
	for i, p := range path {
		addrs[i] = common.HexToAddress(p)
	}

	data, err := c.router.Pack("getAmountsOut", amountIn, addrs)
	if err != nil {
		return nil, fmt.Errorf("pack getAmountsOut: %w", err)
	}

	out, err := c.call(ctx, router, data)
	if err != nil {
		return nil, err
	}

	results, err := c.router.Unpack("getAmountsOut", out)
	if err != nil {
		return nil, fmt.Errorf("unpack getAmountsOut: %w", err)
	}
	amounts, ok := results[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAmountsOut result is not uint256[]")
	}
	return amounts, nil
}

func (c *EVMChain) call(ctx context.Context, to string, data []byte) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := common.HexToAddress(to)
	out, err := c.client.CallContract(callCtx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call to %s: %w", to, err)
	}
	return out, nil
}

// Close releases the underlying RPC connection.
func (c *EVMChain) Close() {
	c.client.Close()
}

// ValidAddress reports whether s is a well-formed hex address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s) && strings.HasPrefix(s, "0x")
}

// OfflineChain stands in when no RPC endpoint could be dialed. Every call
// fails, which the capabilities already handle by falling back to sample
// data or reference rates.
type OfflineChain struct{}

var errChainOffline = fmt.Errorf("chain RPC unavailable")

func (OfflineChain) IsContract(context.Context, string) (bool, error) {
	return false, errChainOffline
}

func (OfflineChain) BlockNumber(context.Context) (uint64, error) {
	return 0, errChainOffline
}

func (OfflineChain) Allowance(context.Context, string, string, string) (*big.Int, error) {
	return nil, errChainOffline
}

func (OfflineChain) PairExists(context.Context, string, string, string) (bool, error) {
	return false, errChainOffline
}

func (OfflineChain) AmountsOut(context.Context, string, *big.Int, []string) ([]*big.Int, error) {
	return nil, errChainOffline
}
