package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator, which reports fields by their YAML names.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validateInst = v
	})
	return validateInst
}

func describeValidationErrors(err error) []string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []string{err.Error()}
	}
	ret := make([]string, 0, len(ves))
	for _, fe := range ves {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required":
			ret = append(ret, field+" is required")
		case "oneof":
			ret = append(ret, fmt.Sprintf("%s must be one of [%s], not %q", field, fe.Param(), fe.Value()))
		default:
			ret = append(ret, fmt.Sprintf("%s: %v fails %q", field, fe.Value(), strings.TrimSpace(fe.Tag()+" "+fe.Param())))
		}
	}
	return ret
}
