package validation

import (
	"reflect"
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// domainRegex matches a bare registrable host name such as "gong.io" or "www.sendoso.com"
var domainRegex = regexp.MustCompile(`^(?i)([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

func NewValidator() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	register(validate)
	if err := registerCustomValidators(validate); err != nil {
		return nil, err
	}
	return validate, nil
}

func register(instance *validator.Validate) {
	// register function to get tag name from json tags
	instance.RegisterTagNameFunc(
		func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		},
	)
}

func registerCustomValidators(instance *validator.Validate) error {
	return instance.RegisterValidation("domain", func(fl validator.FieldLevel) bool {
		return IsDomain(fl.Field().String())
	})
}

// IsDomain reports whether s is a bare domain name, schemes and paths are rejected
func IsDomain(s string) bool {
	if len(s) > 253 {
		return false
	}
	return domainRegex.MatchString(s)
}
