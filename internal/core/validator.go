package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"streetplan/internal/types"
)

// Validator wraps go-playground/validator and registers the domain-specific
// tags used by request structs.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// ValidationError is one failed field, reported under
// details.validation_errors.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidator creates a Validator with the custom tags:
//
//	postal_code4   exactly four ASCII digits
//	json_document  non-empty, syntactically valid JSON text
//	cost_key       one of the enumerated cost keys
//
// Reported field names come from json tags.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("postal_code4", func(fl validator.FieldLevel) bool {
		return types.IsPostalCode4(fl.Field().String())
	})
	_ = v.RegisterValidation("json_document", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return len(s) >= 2 && json.Valid([]byte(s))
	})
	_ = v.RegisterValidation("cost_key", func(fl validator.FieldLevel) bool {
		return types.CostKey(fl.Field().String()).Valid()
	})

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s and returns nil or a *types.AppError whose code
// is that of the first failing field. All failures are listed in
// details.validation_errors.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: a programming error, not bad input.
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Code:    string(tagToErrorCode(fe.Tag())),
			Message: fieldMessage(fe),
		})
	}

	first := out[0]
	return types.NewAppErrorWithDetails(
		types.ErrorCode(first.Code),
		first.Message,
		err,
		map[string]any{"validation_errors": out},
	)
}

// tagToErrorCode maps a validator tag onto the public error code.
func tagToErrorCode(tag string) types.ErrorCode {
	switch tag {
	case "required":
		return types.ErrCodeValidationMissingField
	case "min", "max", "gte", "lte", "gt", "lt":
		return types.ErrCodeValidationOutOfRange
	case "oneof", "cost_key":
		return types.ErrCodeValidationInvalidEnum
	case "postal_code4":
		return types.ErrCodeValidationInvalidPostal
	case "json_document":
		return types.ErrCodeValidationInvalidDocument
	case "unique":
		return types.ErrCodeValidationDuplicateCost
	default:
		return types.ErrCodeValidationFailed
	}
}

// fieldPath drops the top-level struct name from the namespace:
// "createProjectRequest.zones[0].type" becomes "zones[0].type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "cost_key":
		return fmt.Sprintf("%s is not a known cost key", field)
	case "postal_code4":
		return fmt.Sprintf("%s must be exactly four digits", field)
	case "json_document":
		return fmt.Sprintf("%s must be a valid JSON document", field)
	case "unique":
		return fmt.Sprintf("%s must not contain duplicate %s values", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed the %q rule", field, fe.Tag())
	}
}
