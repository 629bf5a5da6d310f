package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// isoDateLayouts are the accepted time period date formats.
var isoDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
}

// ISODateValidator accepts ISO-8601 calendar dates and date-times.
var ISODateValidator = func(fl validator.FieldLevel) bool {
	v := strings.TrimSpace(fl.Field().String())
	for _, layout := range isoDateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// NewValidator returns a validator that knows the custom "isodate" tag and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("isodate", ISODateValidator)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var tagMessages = map[string]string{
	"required": "is required",
	"isodate":  "must be an ISO-8601 date",
	"oneof":    "must be one of: %s",
	"gt":       "must be greater than %s",
	"gte":      "must be at least %s",
}

// toValidationError converts validator output into a ValidationError.
// Other errors are returned unchanged.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, e := range verrs {
		// Drop the root struct name.
		_, field, _ := strings.Cut(e.Namespace(), ".")
		msg := "is invalid"
		if tmpl, ok := tagMessages[e.Tag()]; ok {
			msg = tmpl
			if strings.Contains(tmpl, "%s") {
				msg = fmt.Sprintf(tmpl, e.Param())
			}
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Message: msg})
	}
	return out
}
