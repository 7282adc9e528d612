package tools

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
)

// rootPath marks validation issues that are not attributable to one field.
const rootPath = "(root)"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report issue paths using the wire names from json tags.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

type issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// bindInput unmarshals the request arguments into out and validates them.
// Returns nil when the input is well-formed, otherwise the validation error
// envelope to hand straight back.
func bindInput[T any](req mcp.CallToolRequest, out *T) *mcp.CallToolResult {
	if err := req.BindArguments(out); err != nil {
		return validationFailed([]issue{{Path: rootPath, Message: err.Error()}})
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return validationFailed([]issue{{Path: rootPath, Message: err.Error()}})
		}
		issues := make([]issue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, issue{Path: fieldPath(fe), Message: issueMessage(fe)})
		}
		return validationFailed(issues)
	}
	return nil
}

func validationFailed(issues []issue) *mcp.CallToolResult {
	return errorResult("Validation failed", map[string]any{"issues": issues})
}

// fieldPath renders a dotted field path, dropping the struct type prefix from
// the validator namespace.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
