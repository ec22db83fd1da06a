// Package validation checks user input and sanitizes user-authored text.
package validation

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"reflect"
	"strings"

	"artfeed/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  = newValidator()
	sanitizer = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("web_url", isWebURL)
	return v
}

// isWebURL accepts absolute http and https URLs with a host.
func isWebURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Struct validates s against its `validate` tags. The first failure becomes a
// VALIDATION_ERROR naming the JSON field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return models.NewValidationError(describe(verrs[0]))
	}
	return models.NewValidationError(err.Error())
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "web_url", "url":
		return fmt.Sprintf("%s must be a valid http(s) URL", field)
	case "dive":
		return fmt.Sprintf("%s contains an invalid value", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Sanitize strips all markup from user-authored text. The result is plain
// text: entities the policy escapes are decoded again so "&" stays one
// character in storage and in length checks.
func Sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}
