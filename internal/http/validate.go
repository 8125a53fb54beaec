package http

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"finanzas/internal/core"

	"github.com/go-playground/validator/v10"
)

// Validate checks request DTOs before they are turned into domain records.
var Validate = validator.New()

var notBlank = regexp.MustCompile(`\S`)

func init() {
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01", fl.Field().String())
		return err == nil
	})

	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return notBlank.MatchString(fl.Field().String())
	})

	_ = Validate.RegisterValidation("payer", func(fl validator.FieldLevel) bool {
		_, err := core.ParsePayer(fl.Field().String())
		return err == nil
	})
}

// validateStruct runs the validator and reports the first failing field as
// a core.ValidationError; all failures are listed in the message.
func validateStruct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return core.Invalid("", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return core.Invalid(verrs[0].Field(), errors.New("invalid input: "+strings.Join(msgs, "; ")))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "notblank":
		return fe.Field() + " must not be blank"
	case "yearmonth":
		return fe.Field() + " must be YYYY-MM"
	case "datetime":
		return fe.Field() + " must be YYYY-MM-DD"
	case "payer":
		return fe.Field() + " must be A, B or both"
	case "min", "max":
		return fe.Field() + " must be " + fe.Tag() + " " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
