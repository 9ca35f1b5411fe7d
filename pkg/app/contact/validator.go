package contact

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	domain "github.com/NeuralTrust/FormGate/pkg/domain/errors"
	"github.com/go-playground/validator/v10"
)

type schemaValidator struct {
	validate *validator.Validate
}

func NewValidator() contact.Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &schemaValidator{validate: v}
}

// Validate returns *domain.ClientInputError with one message per invalid field.
func (v *schemaValidator) Validate(s contact.Submission) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate submission: %w", err)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return domain.NewClientInputError(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
