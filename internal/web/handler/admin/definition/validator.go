package definition

import (
	"errors"

	"github.com/go-playground/validator/v10"

	controller "github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/definition"
)

type (
	// ErrorResponse represents a validation error response.
	ErrorResponse struct {
		Error       bool   `json:"error"`
		FailedField string `json:"failedField"`
		Tag         string `json:"tag"`
		Value       any    `json:"value"`
	}

	// XValidator validates definition payloads.
	XValidator struct {
		validator *validator.Validate
	}
)

// NewValidator returns a validator with the settingkey tag registered.
func NewValidator() (*XValidator, error) {
	v := validator.New()

	if err := v.RegisterValidation("settingkey", func(fl validator.FieldLevel) bool {
		return controller.ValidKey(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	return &XValidator{validator: v}, nil
}

// Validate performs validation on the provided data and returns a slice of ErrorResponse.
func (v *XValidator) Validate(data any) []ErrorResponse {
	var validationErrors []ErrorResponse

	err := v.validator.Struct(data)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []ErrorResponse{{Error: true, Tag: "invalid"}}
	}

	for _, fe := range errs {
		validationErrors = append(validationErrors, ErrorResponse{
			Error:       true,
			FailedField: fe.Namespace(),
			Tag:         fe.Tag(),
			Value:       fe.Value(),
		})
	}

	return validationErrors
}
