package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cronosai/opsgate/clients"
	"github.com/cronosai/opsgate/logger"
	"github.com/cronosai/opsgate/metrics"
	"github.com/cronosai/opsgate/network"
	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/types"
)

// Context keys set by the gate for downstream handlers.
const (
	ContextKeyPayer  = "payment.payer"
	ContextKeyTxHash = "payment.txHash"
)

// Gate enforces payment for priced capability routes. Each request runs the
// per-request state machine: no proof issues a challenge, a proof is
// verified and settled before the request may pass through. The gate holds
// no state across requests beyond the attempt log.
type Gate struct {
	registry    *registry.Registry
	facilitator clients.Facilitator
	net         network.Config
	payTo       string
	bypass      bool
	attempts    *AttemptLog
	log         logger.Logger
	metrics     metrics.Recorder
}

// GateOptions configures a Gate.
type GateOptions struct {
	Registry    *registry.Registry
	Facilitator clients.Facilitator
	Network     network.Config
	PayTo       string

	// Bypass skips payment enforcement entirely. The config layer refuses to
	// start a production process with this set; the gate trusts that check.
	Bypass bool

	Attempts *AttemptLog
	Log      logger.Logger
	Metrics  metrics.Recorder
}

// NewGate builds a payment gate.
func NewGate(opts GateOptions) *Gate {
	if opts.Log == nil {
		opts.Log = logger.NoopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.Attempts == nil {
		opts.Attempts = NewAttemptLog(DefaultLogRetention)
	}
	return &Gate{
		registry:    opts.Registry,
		facilitator: opts.Facilitator,
		net:         opts.Network,
		payTo:       opts.PayTo,
		bypass:      opts.Bypass,
		attempts:    opts.Attempts,
		log:         opts.Log,
		metrics:     opts.Metrics,
	}
}

// Attempts exposes the gate's attempt log for observability endpoints.
func (g *Gate) Attempts() *AttemptLog {
	return g.attempts
}

// Middleware returns the gin handler enforcing payment on
// POST /capability/:slug routes.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		// Unknown capabilities are not this gate's concern; downstream
		// returns 404.
		cap, ok := g.registry.Get(slug)
		if !ok {
			c.Next()
			return
		}

		if g.bypass {
			g.log.Info("payment bypass active, skipping enforcement", map[string]any{
				"capability": slug,
			})
			g.record(cap, "", "", types.AttemptSettled)
			c.Next()
			return
		}

		reqs := buildRequirements(cap, g.net, g.payTo)

		header := c.GetHeader(PaymentHeader)
		if header == "" {
			g.record(cap, "", "", types.AttemptPending)
			g.metrics.IncCounter("payment_challenge", map[string]string{"capability": slug})
			c.AbortWithStatusJSON(http.StatusPaymentRequired, challenge(reqs, ""))
			return
		}

		payload, err := decodePaymentHeader(header)
		if err != nil {
			g.log.Warn("malformed payment header", map[string]any{
				"capability": slug,
				"error":      err.Error(),
			})
			g.reject(c, cap, reqs, "", "invalid payment header")
			return
		}

		verifyReq := &types.VerifyRequest{
			X402Version:         types.X402Version,
			PaymentPayload:      *payload,
			PaymentRequirements: reqs,
		}

		// VERIFYING
		verification, err := g.facilitator.Verify(c.Request.Context(), verifyReq)
		if err != nil {
			g.log.Error("payment verification error", map[string]any{
				"capability": slug,
				"error":      err.Error(),
			})
			g.reject(c, cap, reqs, "", "payment verification unavailable, retry with the same proof")
			return
		}
		if !verification.IsValid {
			g.log.Warn("payment proof rejected", map[string]any{
				"capability": slug,
				"reason":     verification.InvalidReason,
			})
			g.reject(c, cap, reqs, verification.Payer, "payment proof invalid")
			return
		}

		// VERIFIED
		g.record(cap, verification.Payer, "", types.AttemptVerified)
		g.metrics.IncCounter("payment_verified", map[string]string{"capability": slug})

		// SETTLING
		settlement, err := g.facilitator.Settle(c.Request.Context(), verifyReq)
		if err != nil {
			g.log.Error("payment settlement error", map[string]any{
				"capability": slug,
				"error":      err.Error(),
			})
			g.reject(c, cap, reqs, verification.Payer, "payment settlement failed, retry with a fresh proof")
			return
		}
		if !settlement.Success || settlement.TxHash == "" {
			g.log.Warn("payment settlement rejected", map[string]any{
				"capability": slug,
				"error":      settlement.Error,
			})
			g.reject(c, cap, reqs, verification.Payer, "payment settlement failed, retry with a fresh proof")
			return
		}

		// SETTLED
		payer := settlement.Payer
		if payer == "" {
			payer = verification.Payer
		}
		g.record(cap, payer, settlement.TxHash, types.AttemptSettled)
		g.metrics.IncCounter("payment_settled", map[string]string{"capability": slug})

		g.log.Info("payment settled", map[string]any{
			"capability": slug,
			"price":      cap.Price,
			"payer":      payer,
			"txHash":     settlement.TxHash,
		})

		c.Set(ContextKeyPayer, payer)
		c.Set(ContextKeyTxHash, settlement.TxHash)

		// PASS_THROUGH
		c.Next()
	}
}

// reject terminates the request with a 402 carrying the requirements and a
// generic reason. Internal error detail never reaches the response body.
func (g *Gate) reject(c *gin.Context, cap *registry.Capability, reqs types.PaymentRequirements, payer, reason string) {
	g.record(cap, payer, "", types.AttemptFailed)
	g.metrics.IncCounter("payment_failed", map[string]string{"capability": cap.Slug})
	c.AbortWithStatusJSON(http.StatusPaymentRequired, challenge(reqs, reason))
}

func (g *Gate) record(cap *registry.Capability, payer, txHash string, status types.AttemptStatus) {
	g.attempts.Append(types.PaymentAttempt{
		Capability: cap.Slug,
		Price:      cap.Price,
		Network:    g.net.NetworkID,
		Payer:      payer,
		TxHash:     txHash,
		Status:     status,
	})
}
