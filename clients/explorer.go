package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/cronosai/opsgate/logger"
	"github.com/cronosai/opsgate/types"
)

// ContractInfo is what the explorer knows about a deployed contract.
type ContractInfo struct {
	Address           string `json:"address"`
	Verified          bool   `json:"verified"`
	ContractName      string `json:"contractName,omitempty"`
	CompilerVersion   string `json:"compilerVersion,omitempty"`
	IsProxy           bool   `json:"isProxy"`
	CreatorAddress    string `json:"creatorAddress,omitempty"`
	CreationTxHash    string `json:"creationTxHash,omitempty"`
	CreationTimestamp int64  `json:"creationTimestamp,omitempty"`
	AgeDays           int    `json:"ageDays"`
	TxCount           int    `json:"txCount"`
}

// Explorer looks up contract metadata. Implementations must treat partial
// data as normal: an unverified contract is a result, not an error.
type Explorer interface {
	ContractInfo(ctx context.Context, address string) (*ContractInfo, error)
}

// CronoscanExplorer queries a cronoscan-style module/action API.
type CronoscanExplorer struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     logger.Logger
	now     func() time.Time
}

// NewCronoscanExplorer builds an explorer client with a bounded timeout.
func NewCronoscanExplorer(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *CronoscanExplorer {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &CronoscanExplorer{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
		now:     time.Now,
	}
}

// ContractInfo runs the verification, creation, and activity queries
// concurrently and merges them. Individual query failures degrade to safe
// defaults; only a total transport failure surfaces as an error.
func (e *CronoscanExplorer) ContractInfo(ctx context.Context, address string) (*ContractInfo, error) {
	info := &ContractInfo{Address: address}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		e.fillVerification(ctx, address, info)
	}()
	go func() {
		defer wg.Done()
		e.fillCreation(ctx, address, info)
	}()

	var txCount int
	go func() {
		defer wg.Done()
		txCount = e.transactionCount(ctx, address)
	}()

	wg.Wait()
	info.TxCount = txCount

	if info.CreationTimestamp > 0 {
		age := e.now().Unix() - info.CreationTimestamp
		info.AgeDays = int(age / 86400)
	}

	e.log.Debug("explorer contract info", map[string]any{
		"address":  address,
		"verified": info.Verified,
		"ageDays":  info.AgeDays,
		"txCount":  info.TxCount,
	})

	return info, nil
}

func (e *CronoscanExplorer) fillVerification(ctx context.Context, address string, info *ContractInfo) {
	body, err := e.fetch(ctx, "contract", "getsourcecode", map[string]string{"address": address})
	if err != nil {
		// Safe default: treat as unverified.
		return
	}

	first := gjson.GetBytes(body, "result.0")
	if !first.Exists() {
		return
	}

	source := first.Get("SourceCode").String()
	info.Verified = source != ""
	if info.Verified {
		info.ContractName = first.Get("ContractName").String()
		info.CompilerVersion = first.Get("CompilerVersion").String()
	}
	info.IsProxy = first.Get("Proxy").String() == "1"
}

func (e *CronoscanExplorer) fillCreation(ctx context.Context, address string, info *ContractInfo) {
	body, err := e.fetch(ctx, "contract", "getcontractcreation", map[string]string{
		"contractaddresses": address,
	})
	if err != nil {
		return
	}

	first := gjson.GetBytes(body, "result.0")
	if !first.Exists() {
		return
	}

	info.CreatorAddress = first.Get("contractCreator").String()
	info.CreationTxHash = first.Get("txHash").String()
	if info.CreationTxHash == "" || info.CreatorAddress == "" {
		return
	}

	// The creation endpoint carries no timestamp; find the creation tx in the
	// creator's earliest transactions.
	txBody, err := e.fetch(ctx, "account", "txlist", map[string]string{
		"address":    info.CreatorAddress,
		"startblock": "0",
		"endblock":   "99999999",
		"page":       "1",
		"offset":     "100",
		"sort":       "asc",
	})
	if err != nil {
		return
	}

	for _, tx := range gjson.GetBytes(txBody, "result").Array() {
		if tx.Get("hash").String() == info.CreationTxHash {
			info.CreationTimestamp = tx.Get("timeStamp").Int()
			return
		}
	}
}

func (e *CronoscanExplorer) transactionCount(ctx context.Context, address string) int {
	body, err := e.fetch(ctx, "account", "txlist", map[string]string{
		"address":    address,
		"startblock": "0",
		"endblock":   "99999999",
		"page":       "1",
		"offset":     "10000",
		"sort":       "desc",
	})
	if err != nil {
		return 0
	}

	result := gjson.GetBytes(body, "result")
	if !result.IsArray() {
		return 0
	}
	return len(result.Array())
}

func (e *CronoscanExplorer) fetch(ctx context.Context, module, action string, params map[string]string) ([]byte, error) {
	u, err := url.Parse(e.baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad explorer URL: %w", err)
	}

	q := u.Query()
	q.Set("module", module)
	q.Set("action", action)
	for k, v := range params {
		q.Set(k, v)
	}
	if e.apiKey != "" {
		q.Set("apikey", e.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, types.ErrExplorerUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.ErrExplorerUnavailable.With(
			fmt.Sprintf("Explorer API responded with status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.ErrExplorerUnavailable
	}

	// Cronoscan reports errors and empty result sets with status "0".
	if gjson.GetBytes(body, "status").String() == "0" &&
		gjson.GetBytes(body, "message").String() == "NOTOK" {
		return nil, types.ErrExplorerUnavailable
	}

	return body, nil
}
