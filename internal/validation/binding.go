package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	registerOnce    sync.Once
)

// ReservedUsernames cannot be registered because they collide with routes.
var ReservedUsernames = []string{"me"}

// RegisterBindings installs the custom tags and JSON field naming on gin's
// validator engine. Safe to call repeatedly.
func RegisterBindings() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return ValidUsername(fl.Field().String())
		})
	})
}

// ValidUsername reports whether name matches the allowed pattern and is not reserved.
func ValidUsername(name string) bool {
	if !usernamePattern.MatchString(name) {
		return false
	}
	for _, reserved := range ReservedUsernames {
		if strings.EqualFold(name, reserved) {
			return false
		}
	}
	return true
}

// FromBindingError converts an error returned by gin's ShouldBindJSON into FieldErrors.
func FromBindingError(err error) FieldErrors {
	errs := FieldErrors{}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			errs.Add(fe.Field(), message(fe))
		}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "non_field_errors"
		}
		errs.Add(field, fmt.Sprintf("Expected a value of type %s.", typeErr.Type))
	case errors.Is(err, io.EOF):
		errs.Add("non_field_errors", "Request body is empty.")
	case errors.As(err, &syntaxErr):
		errs.Add("non_field_errors", "Malformed JSON body.")
	default:
		errs.Add("non_field_errors", err.Error())
	}

	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "username":
		return "Enter a valid username. Letters, digits and @/./+/-/_ only; \"me\" is reserved."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
