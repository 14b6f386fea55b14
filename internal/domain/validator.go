package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	defaultTemperatureMin = 0.0
	defaultTemperatureMax = 2.0
	defaultMaxTokensLimit = 4096
)

// ValidationLimits bounds the tunable generation parameters.
type ValidationLimits struct {
	TemperatureMin float64
	TemperatureMax float64
	MaxTokensLimit int
}

// DefaultValidationLimits returns the 0–2 temperature and 4096 token limits.
func DefaultValidationLimits() ValidationLimits {
	return ValidationLimits{
		TemperatureMin: defaultTemperatureMin,
		TemperatureMax: defaultTemperatureMax,
		MaxTokensLimit: defaultMaxTokensLimit,
	}
}

// RequestValidator checks a request before any network activity.
type RequestValidator struct {
	limits   ValidationLimits
	validate *validator.Validate
}

// NewRequestValidator creates a validator with the given limits.
func NewRequestValidator(limits ValidationLimits) *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names ("max_tokens") rather than Go names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{
		limits:   limits,
		validate: v,
	}
}

// Validate fails fast with the first violated constraint, in the order
// model, messages, temperature, max_tokens.
func (v *RequestValidator) Validate(req *CompletionRequest) error {
	if req == nil {
		return newValidationError("request", "request cannot be nil")
	}

	if err := v.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toValidationError(fieldErrs[0])
		}
		return newValidationError("request", err.Error())
	}

	return v.ValidateSettings(req.Temperature, req.MaxTokens)
}

// ValidateSettings checks the optional generation parameters alone. NaN is
// outside every range.
func (v *RequestValidator) ValidateSettings(temperature *float64, maxTokens *int) error {
	if temperature != nil {
		t := *temperature
		if math.IsNaN(t) || t < v.limits.TemperatureMin || t > v.limits.TemperatureMax {
			return newValidationError("temperature", fmt.Sprintf(
				"temperature must be between %g and %g", v.limits.TemperatureMin, v.limits.TemperatureMax))
		}
	}

	if maxTokens != nil {
		n := *maxTokens
		if n < 1 || n > v.limits.MaxTokensLimit {
			return newValidationError("max_tokens", fmt.Sprintf(
				"max_tokens must be between 1 and %d", v.limits.MaxTokensLimit))
		}
	}

	return nil
}

func toValidationError(fe validator.FieldError) *ChatError {
	// Namespace is "CompletionRequest.messages[0].role"; drop the type name.
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	field := strings.SplitN(path, "[", 2)[0]

	var message string
	switch fe.Tag() {
	case "required":
		message = path + " is required"
	case "min":
		message = path + " must not be empty"
	case "oneof":
		message = fmt.Sprintf("%s must be one of: %s", path, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		message = fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}

	return newValidationError(field, message)
}
