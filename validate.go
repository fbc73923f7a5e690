package agentpay

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Chain identifies a supported settlement network.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBase     Chain = "base"
	ChainPolygon  Chain = "polygon"
	ChainArbitrum Chain = "arbitrum"
)

// Token identifies a supported stablecoin.
type Token string

const (
	TokenUSDC Token = "USDC"
	TokenUSDT Token = "USDT"
	TokenDAI  Token = "DAI"
)

var (
	// txHashPattern matches a 32-byte transaction hash in 0x-prefixed hex.
	txHashPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

	validate = newValidator()
)

// IsValidTxHash reports whether s looks like an on-chain transaction hash.
func IsValidTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

// IsWellFormedMandateToken reports whether s has the shape of a mandate
// token: three dot-separated segments of non-trivial length. It says nothing
// about authenticity; only the gateway can verify the signature.
func IsWellFormedMandateToken(s string) bool {
	if len(s) < 20 {
		return false
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	mustRegister(v, "txhash", func(fl validator.FieldLevel) bool {
		return IsValidTxHash(fl.Field().String())
	})
	mustRegister(v, "mandate_token", func(fl validator.FieldLevel) bool {
		return IsWellFormedMandateToken(fl.Field().String())
	})
	mustRegister(v, "finite_positive", func(fl validator.FieldLevel) bool {
		value := fl.Field().Float()
		return value > 0 && !math.IsInf(value, 0) && !math.IsNaN(value)
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// validateStruct runs validator rules and normalizes the first failure into a
// *ValidationError carrying the offending JSON path.
func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

func normalizeValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	first := validationErrs[0]
	return &ValidationError{Field: jsonPath(first), Message: validationMessage(first)}
}

func jsonPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	if path == "" {
		return fe.Field()
	}
	return path
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "txhash":
		return "must be a 0x-prefixed 64-character hex transaction hash"
	case "mandate_token":
		return "must be a well-formed mandate token"
	case "finite_positive":
		return "must be a finite positive number"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
