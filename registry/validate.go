package registry

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cronosai/opsgate/types"
)

var validate = validator.New()

// validateInput runs struct-tag validation and translates the first failing
// field into a user-facing INVALID_INPUT error. Only the first error is
// surfaced; the full tree stays server-side.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return types.NewCapabilityError(
			types.ErrInvalidInput,
			fmt.Sprintf("input validation failed: %v", err),
			"Input is invalid.",
			true,
		)
	}

	fe := verrs[0]
	return types.NewCapabilityError(
		types.ErrInvalidInput,
		fmt.Sprintf("field %s failed on tag %s", fe.Namespace(), fe.Tag()),
		fieldMessage(fe),
		true,
	)
}

// fieldMessage renders a human-readable message for a single field error.
func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "eth_addr":
		return "Invalid Ethereum address format"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s is too short", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
