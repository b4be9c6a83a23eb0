package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator. Field names in its errors
// are the JSON names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, r, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// DecodeValid is Decode followed by struct-tag validation. Validation
// failures are written as a field-level 400.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !Decode(w, r, dst) {
		return false
	}
	return Valid(w, r, dst)
}

// Valid validates v and writes a field-level 400 on failure.
func Valid(w http.ResponseWriter, r *http.Request, v any) bool {
	err := Validator().Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		BadRequest(w, r, err.Error())
		return false
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], describe(fe))
	}
	ValidationFields(w, r, fields)
	return false
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + fe.Field() + " field is required."
	case "oneof":
		return "The " + fe.Field() + " field must be one of: " + fe.Param() + "."
	case "max":
		return "The " + fe.Field() + " field must be at most " + fe.Param() + " long."
	case "gt":
		return "The " + fe.Field() + " field must be greater than " + fe.Param() + "."
	case "lte":
		return "The " + fe.Field() + " field must be at most " + fe.Param() + "."
	default:
		return "The " + fe.Field() + " field is invalid (" + fe.Tag() + ")."
	}
}
