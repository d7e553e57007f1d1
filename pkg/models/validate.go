package models

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct validates v and converts failures to a 400 httperror.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, validationMessage(v, err))
	}
	return nil
}

func validationMessage(input any, err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field '%s' failed rule '%s' (param '%s', got '%v')", fe.StructField(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Sprintf("invalid %T: %s", input, strings.Join(parts, "; "))
}
