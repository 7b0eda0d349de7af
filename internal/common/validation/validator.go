// Package validation wraps go-playground/validator with catalog-specific rules
// and readable, AppError-typed failures.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"card-catalog/internal/common/errors"
)

// UnknownCardName is the placeholder some exports write for a card they could not identify.
const UnknownCardName = "Unknown Card Name"

// Validator validates structs using struct tags
type Validator struct {
	validator *validator.Validate
}

type fieldError struct {
	field   string
	rule    string
	message string
}

// New creates a validator with the catalog rules registered
func New() *Validator {
	v := validator.New()

	registerCatalogValidators(v)

	// Report JSON field names, which match the stored document fields
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validator: v}
}

// ValidateStruct validates a struct and returns a validation AppError on failure
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.validator.Struct(s); err != nil {
		return v.formatValidationErrors(err)
	}
	return nil
}

func (v *Validator) formatValidationErrors(err error) error {
	fieldErrors := v.extractValidationErrors(err)
	if len(fieldErrors) == 1 {
		fe := fieldErrors[0]
		return errors.ValidationError(fe.message).
			WithContext("field", fe.field).
			WithContext("rule", fe.rule)
	}

	messages := make([]string, len(fieldErrors))
	for i, e := range fieldErrors {
		messages[i] = e.message
	}
	return errors.ValidationError(fmt.Sprintf("validation failed: %s", strings.Join(messages, "; ")))
}

func (v *Validator) extractValidationErrors(err error) []fieldError {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []fieldError{{field: "unknown", rule: "error", message: err.Error()}}
	}

	out := make([]fieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, fieldError{
			field:   fe.Field(),
			rule:    fe.Tag(),
			message: formatFieldError(fe),
		})
	}
	return out
}

func formatFieldError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", err.Field())
	case "gte":
		return fmt.Sprintf("field '%s' must be at least %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("field '%s' must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", err.Field(), err.Param())
	case "card_name":
		return fmt.Sprintf("field '%s' must name a known card", err.Field())
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", err.Field(), err.Tag())
	}
}

func registerCatalogValidators(v *validator.Validate) {
	v.RegisterValidation("card_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return name != "" && name != UnknownCardName
	})
}

var globalValidator = New()

// ValidateStruct validates a struct using the shared validator
func ValidateStruct(s interface{}) error {
	return globalValidator.ValidateStruct(s)
}
