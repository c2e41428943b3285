package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// reservedUsernames collide with the fixed /users/... routes.
var reservedUsernames = map[string]struct{}{
	"me":        {},
	"search":    {},
	"interests": {},
	"sync":      {},
	"friends":   {},
}

// Username reports whether name can be served by GET /users/{username}:
// not a reserved route segment, not all digits and no path separator.
func Username(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "/") {
		return false
	}
	if _, reserved := reservedUsernames[strings.ToLower(name)]; reserved {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

// RegisterCustomValidations adds the "username" tag to v.
func RegisterCustomValidations(v *validator.Validate) error {
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return Username(fl.Field().String())
	})
}

// RegisterGinValidations installs the custom tags on gin's binding engine.
func RegisterGinValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return RegisterCustomValidations(v)
}

// FormatValidationError turns binding errors into a single readable message.
func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s has an invalid type", typeErr.Field)
	}

	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "username":
		return fmt.Sprintf("%s is reserved or not addressable (no digits-only, no '/', not me/search/interests/sync/friends)", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"FirstName":      "first_name",
		"LastName":       "last_name",
		"Username":       "username",
		"Email":          "email",
		"ProfilePicture": "profile_picture",
		"Role":           "role",
		"ToUserID":       "to_user_id",
		"StartTime":      "start_time",
		"EndTime":        "end_time",
		"Type":           "type",
		"Title":          "title",
		"InterestIDs":    "interest_ids",
		"Query":          "q",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
