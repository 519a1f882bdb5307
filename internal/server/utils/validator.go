package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/vzahanych/weather-page/internal/weather"
)

const maxLocationLength = 200

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("location", validateLocation)
	validate.RegisterValidation("units", validateUnits)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func GetValidator() *validator.Validate {
	return validate
}

// validateLocation rejects blank and oversized input. The provider resolves
// the place itself.
func validateLocation(fl validator.FieldLevel) bool {
	loc := strings.TrimSpace(fl.Field().String())
	return loc != "" && utf8.RuneCountInString(loc) <= maxLocationLength
}

func validateUnits(fl validator.FieldLevel) bool {
	_, err := weather.ParseUnitSystem(fl.Field().String())
	return err == nil
}

type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

func FormatValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, err := range validatorErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Value:   err.Value(),
				Tag:     err.Tag(),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "location":
		return fmt.Sprintf("%s must be a non-blank place name of at most %d characters", err.Field(), maxLocationLength)
	case "units":
		return fmt.Sprintf("%s must be one of: metric imperial", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

func ValidateStruct(s interface{}) []ValidationError {
	err := validate.Struct(s)
	if err != nil {
		return FormatValidationErrors(err)
	}
	return nil
}
