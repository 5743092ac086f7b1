// Package types holds the shared data model of the opsgate gateway:
// capability results, the error taxonomy, and the x402 wire types exchanged
// with payment clients and the facilitator.
package types

import "time"

// WarningLevel tags advisory warnings attached to capability results.
type WarningLevel string

const (
	WarnInfo    WarningLevel = "info"
	WarnWarning WarningLevel = "warning"
	WarnDanger  WarningLevel = "danger"
)

// RiskLevel classifies analysis outcomes.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Warning is an advisory note on a capability result. Warnings never block
// execution; they inform the caller.
type Warning struct {
	Level   WarningLevel `json:"level"`
	Message string       `json:"message"`
}

// Signal is a single heuristic finding produced while analyzing a contract.
// Weight feeds the aggregate risk score; zero-weight signals are purely
// informational.
type Signal struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Weight  int    `json:"weight"`
}

// CapabilityResult is the outcome of one executor invocation. Success implies
// Data is present and well-formed for that capability's output shape.
// Limitations carries the capability's static disclaimers and is never empty.
type CapabilityResult struct {
	Success     bool        `json:"success"`
	Data        interface{} `json:"data"`
	Warnings    []Warning   `json:"warnings"`
	Limitations []string    `json:"limitations"`
}

// AttemptStatus is the terminal (or intermediate) state of one payment
// attempt. Status is monotonic within a logical attempt: pending may advance
// to verified, verified to settled or failed, never backwards.
type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "pending"
	AttemptVerified AttemptStatus = "verified"
	AttemptSettled  AttemptStatus = "settled"
	AttemptFailed   AttemptStatus = "failed"
)

// PaymentAttempt is an append-only observability record of one gate decision.
type PaymentAttempt struct {
	Timestamp  time.Time     `json:"timestamp"`
	Capability string        `json:"capability"`
	Price      string        `json:"price"`
	Network    string        `json:"network"`
	Payer      string        `json:"payer,omitempty"`
	TxHash     string        `json:"txHash,omitempty"`
	Status     AttemptStatus `json:"status"`
}
