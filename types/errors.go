package types

// Error codes surfaced to callers. Codes are stable; messages are not.
const (
	ErrInvalidInput       = "INVALID_INPUT"
	ErrInvalidAddress     = "INVALID_ADDRESS"
	ErrCapabilityNotFound = "CAPABILITY_NOT_FOUND"
	ErrTokenNotFound      = "TOKEN_NOT_FOUND"
	ErrContractNotFound   = "CONTRACT_NOT_FOUND"
	ErrUnsupportedAction  = "UNSUPPORTED_ACTION"
	ErrSameToken          = "SAME_TOKEN"
	ErrExplorerTimeout    = "EXPLORER_TIMEOUT"
	ErrPaymentRequired    = "PAYMENT_REQUIRED"
	ErrRateLimited        = "RATE_LIMITED"
	ErrInternal           = "INTERNAL_ERROR"
)

// CapabilityError is the recognized domain error: a stable machine-readable
// code, an internal message for logs, a user-facing message safe to return,
// and whether the caller can recover by changing the request.
type CapabilityError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
	Recoverable bool   `json:"recoverable"`
}

func (e *CapabilityError) Error() string {
	return e.Message
}

// NewCapabilityError builds a recognized domain error.
func NewCapabilityError(code, message, userMessage string, recoverable bool) *CapabilityError {
	return &CapabilityError{
		Code:        code,
		Message:     message,
		UserMessage: userMessage,
		Recoverable: recoverable,
	}
}

// Predefined error templates for common conditions. Use With to attach a
// request-specific user message.
var (
	ErrAddressInvalid = &CapabilityError{
		Code:        ErrInvalidAddress,
		Message:     "invalid address format",
		UserMessage: "The address is not valid. Check that it is a Cronos address (0x...).",
		Recoverable: true,
	}
	ErrExplorerUnavailable = &CapabilityError{
		Code:        ErrExplorerTimeout,
		Message:     "explorer API timeout",
		UserMessage: "The explorer service is taking longer than usual. Try again in a few seconds.",
		Recoverable: true,
	}
	ErrCapabilityUnknown = &CapabilityError{
		Code:        ErrCapabilityNotFound,
		Message:     "capability not found",
		UserMessage: "This capability does not exist.",
		Recoverable: false,
	}
	ErrUnexpected = &CapabilityError{
		Code:        ErrInternal,
		Message:     "internal server error",
		UserMessage: "An unexpected error occurred. Please try again.",
		Recoverable: true,
	}
)

// With returns a copy of the template carrying a custom user message.
// Templates are shared values and must never be mutated in place.
func (e *CapabilityError) With(userMessage string) *CapabilityError {
	return &CapabilityError{
		Code:        e.Code,
		Message:     e.Message,
		UserMessage: userMessage,
		Recoverable: e.Recoverable,
	}
}
