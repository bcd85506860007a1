package http

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the request validator with the project's custom tags registered.
func NewValidator() *CustomValidator {
	validate := validator.New()

	// an empty slug is accepted and means "derive from the title"
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || slugPattern.MatchString(s)
	})

	return &CustomValidator{validator: validate}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
