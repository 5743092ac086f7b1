package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cronosai/opsgate/payment"
	"github.com/cronosai/opsgate/types"
)

func (s *Server) handleCatalogue(c *gin.Context) {
	caps := s.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"count":        len(caps),
		"capabilities": caps,
	})
}

// handleExecute runs after the payment gate has let the request through.
// The raw result is always present; the rendered text is best-effort.
func (s *Server) handleExecute(c *gin.Context) {
	slug := c.Param("slug")

	body, err := c.GetRawData()
	if err != nil {
		s.writeError(c, types.NewCapabilityError(
			types.ErrInvalidInput,
			"unreadable request body",
			"Request body could not be read.",
			true,
		))
		return
	}

	resp, err := s.orchestrator.Execute(c.Request.Context(), slug, body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := gin.H{
		"success":          resp.Success,
		"capability":       resp.Capability,
		"cost":             resp.Cost,
		"result":           resp.RawResult.Data,
		"response":         resp.Rendered,
		"warnings":         resp.RawResult.Warnings,
		"limitations":      resp.RawResult.Limitations,
		"processingTimeMs": resp.ProcessingTimeMs,
	}
	if tx := c.GetString(payment.ContextKeyTxHash); tx != "" {
		out["paymentTxHash"] = tx
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	rpc := false
	if s.chain != nil {
		_, err := s.chain.BlockNumber(ctx)
		rpc = err == nil
	}

	formatter := false
	if s.text != nil {
		formatter = s.text.Ping(ctx)
	}

	status := http.StatusOK
	state := "ok"
	if !rpc || !formatter {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"network":   s.cfg.Network().NetworkID,
		"services": gin.H{
			"api":       true,
			"rpc":       rpc,
			"formatter": formatter,
			"payments":  !s.cfg.SkipPayments,
		},
	})
}

func (s *Server) handleNetwork(c *gin.Context) {
	net := s.cfg.Network()
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"mode":            net.Mode,
		"networkId":       net.NetworkID,
		"chainId":         net.ChainID,
		"explorerUrl":     net.ExplorerURL,
		"paymentToken":    net.PaymentToken,
		"nativeToken":     net.NativeToken,
		"paymentsEnabled": !s.cfg.SkipPayments,
	})
}

func (s *Server) handleRecentPayments(c *gin.Context) {
	limit := payment.DefaultLogRetention
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	attempts := s.gate.Attempts().Recent(limit)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(attempts),
		"attempts": attempts,
	})
}

// writeError translates errors at the boundary. Recognized domain errors map
// code to status and expose only the user-facing message; anything else is
// an opaque 500.
func (s *Server) writeError(c *gin.Context, err error) {
	capErr, ok := err.(*types.CapabilityError)
	if !ok {
		s.log.Error("unhandled error at boundary", map[string]any{
			"requestId": c.GetString("requestID"),
			"error":     err.Error(),
		})
		capErr = types.ErrUnexpected
	}

	status := http.StatusBadRequest
	switch capErr.Code {
	case types.ErrCapabilityNotFound:
		status = http.StatusNotFound
	case types.ErrPaymentRequired:
		status = http.StatusPaymentRequired
	case types.ErrRateLimited:
		status = http.StatusTooManyRequests
	case types.ErrInternal:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"success":     false,
		"error":       capErr.Code,
		"message":     capErr.UserMessage,
		"recoverable": capErr.Recoverable,
	})
}
