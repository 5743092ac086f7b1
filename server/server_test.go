package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cronosai/opsgate/config"
	"github.com/cronosai/opsgate/network"
	"github.com/cronosai/opsgate/orchestrator"
	"github.com/cronosai/opsgate/payment"
	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/types"
)

type healthChain struct{ online bool }

func (h healthChain) IsContract(context.Context, string) (bool, error) { return false, nil }
func (h healthChain) BlockNumber(context.Context) (uint64, error) {
	if !h.online {
		return 0, context.DeadlineExceeded
	}
	return 1, nil
}
func (h healthChain) Allowance(context.Context, string, string, string) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (h healthChain) PairExists(context.Context, string, string, string) (bool, error) {
	return false, nil
}
func (h healthChain) AmountsOut(context.Context, string, *big.Int, []string) ([]*big.Int, error) {
	return nil, nil
}

type healthText struct{ online bool }

func (h healthText) Complete(context.Context, string, string) (string, error) { return "ok", nil }
func (h healthText) Ping(context.Context) bool                                { return h.online }

type echoInput struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                3000,
		Env:                 config.EnvDevelopment,
		NetworkMode:         network.Testnet,
		SkipPayments:        true,
		FrontendURL:         "http://localhost:5173",
		RateLimitWindow:     time.Minute,
		CapabilityRateLimit: 100,
		InfoRateLimit:       100,
	}
}

func newTestServer(cfg *config.Config, healthy bool) *Server {
	gin.SetMode(gin.TestMode)

	reg := registry.New(nil)
	reg.Register(&registry.Capability{
		Slug:        "contract-scan",
		Name:        "Contract Scan",
		Description: "test",
		Price:       "$0.01",
		PriceUSD:    decimal.RequireFromString("0.01"),
		Limitations: []string{"heuristic only"},
		NewInput:    func() any { return &echoInput{} },
		Executor: registry.ExecutorFunc(func(ctx context.Context, input any) (*types.CapabilityResult, error) {
			return &types.CapabilityResult{
				Success:     true,
				Data:        map[string]any{"address": input.(*echoInput).Address},
				Warnings:    []types.Warning{},
				Limitations: []string{"heuristic only"},
			}, nil
		}),
	})

	gate := payment.NewGate(payment.GateOptions{
		Registry: reg,
		Network:  network.ForMode(network.Testnet),
		Bypass:   true,
	})

	orch := orchestrator.New(orchestrator.Options{Registry: reg})

	return New(Options{
		Config:       cfg,
		Registry:     reg,
		Gate:         gate,
		Orchestrator: orch,
		Chain:        healthChain{online: healthy},
		Text:         healthText{online: healthy},
	})
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestCatalogueRoute(t *testing.T) {
	s := newTestServer(testConfig(), true)

	w := do(s, http.MethodGet, "/capability", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}
	caps := body["capabilities"].([]any)
	first := caps[0].(map[string]any)
	if first["slug"] != "contract-scan" || first["price"] != "$0.01" {
		t.Errorf("catalogue entry = %v", first)
	}
}

func TestExecuteRouteSuccess(t *testing.T) {
	s := newTestServer(testConfig(), true)

	w := do(s, http.MethodPost, "/capability/contract-scan",
		`{"address":"0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["success"] != true || body["capability"] != "contract-scan" || body["cost"] != "$0.01" {
		t.Errorf("envelope = %v", body)
	}
	if body["result"] == nil {
		t.Error("raw result missing from response")
	}
	if body["response"] == "" {
		t.Error("rendered text missing from response")
	}
	if _, ok := body["limitations"]; !ok {
		t.Error("limitations missing from response")
	}
	if _, ok := body["processingTimeMs"]; !ok {
		t.Error("processingTimeMs missing from response")
	}
}

func TestExecuteRouteUnknownCapability(t *testing.T) {
	s := newTestServer(testConfig(), true)

	w := do(s, http.MethodPost, "/capability/no-such-thing", `{}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["error"] != types.ErrCapabilityNotFound {
		t.Errorf("error = %v, want CAPABILITY_NOT_FOUND", body["error"])
	}
	if body["success"] != false {
		t.Error("success must be false on error")
	}
}

func TestExecuteRouteInvalidInput(t *testing.T) {
	s := newTestServer(testConfig(), true)

	w := do(s, http.MethodPost, "/capability/contract-scan", `{"address":"nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["error"] != types.ErrInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", body["error"])
	}
	if body["message"] != "Invalid Ethereum address format" {
		t.Errorf("message = %v", body["message"])
	}
	if body["recoverable"] != true {
		t.Error("validation errors must be recoverable")
	}
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(testConfig(), true)

	w := do(s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	services := body["services"].(map[string]any)
	if services["rpc"] != true || services["formatter"] != true {
		t.Errorf("services = %v", services)
	}
	// Bypass mode reports payments disabled.
	if services["payments"] != false {
		t.Errorf("payments = %v, want false under bypass", services["payments"])
	}
}

func TestHealthRouteDegraded(t *testing.T) {
	s := newTestServer(testConfig(), false)

	w := do(s, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if decodeBody(t, w)["status"] != "degraded" {
		t.Error("expected degraded status")
	}
}

func TestNetworkRoute(t *testing.T) {
	s := newTestServer(testConfig(), true)

	w := do(s, http.MethodGet, "/network", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["networkId"] != "cronos-testnet" {
		t.Errorf("networkId = %v", body["networkId"])
	}
	if body["chainId"].(float64) != 338 {
		t.Errorf("chainId = %v, want 338", body["chainId"])
	}
}

func TestRecentPaymentsRoute(t *testing.T) {
	s := newTestServer(testConfig(), true)

	// A bypassed execution still logs a settled attempt.
	do(s, http.MethodPost, "/capability/contract-scan",
		`{"address":"0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae"}`)

	w := do(s, http.MethodGet, "/payments/recent", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}
	attempts := body["attempts"].([]any)
	first := attempts[0].(map[string]any)
	if first["status"] != string(types.AttemptSettled) {
		t.Errorf("attempt = %v, want settled", first)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	s := newTestServer(testConfig(), true)

	w := do(s, http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if decodeBody(t, w)["error"] != "NOT_FOUND" {
		t.Error("404 must be JSON with a stable error code")
	}
}

func TestCapabilityRouteRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.CapabilityRateLimit = 1
	s := newTestServer(cfg, true)

	first := do(s, http.MethodPost, "/capability/contract-scan",
		`{"address":"0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := do(s, http.MethodPost, "/capability/contract-scan",
		`{"address":"0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if decodeBody(t, second)["error"] != types.ErrRateLimited {
		t.Error("429 body must carry the RATE_LIMITED code")
	}
	if second.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", second.Header().Get("X-RateLimit-Remaining"))
	}
}
