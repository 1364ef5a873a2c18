// Package validation checks submitted forms against the typed payloads in
// models and reports the outcome as a Result instead of an error.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/wanderlust/internal/apperr"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// FieldError is one failed rule on one form field.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Result holds either a valid payload or the list of field errors.
type Result[T any] struct {
	Value  T
	Errors []FieldError
}

// Valid reports whether the payload passed every rule.
func (r Result[T]) Valid() bool {
	return len(r.Errors) == 0
}

// Message joins the field messages with ", ".
func (r Result[T]) Message() string {
	messages := make([]string, 0, len(r.Errors))
	for _, fieldErr := range r.Errors {
		messages = append(messages, fieldErr.Message)
	}
	return strings.Join(messages, ", ")
}

// Err returns a 400 error carrying Message, or nil for a valid result.
func (r Result[T]) Err() error {
	if r.Valid() {
		return nil
	}
	return apperr.BadRequest(r.Message())
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator that names fields after their form tags.
func New() (*Validator, error) {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	if err := validate.RegisterValidation("nonnegative", validateNonNegative); err != nil {
		return nil, fmt.Errorf("in internal/validation/validation.go/New(): error while `validate.RegisterValidation()` calling: %w", err)
	}

	return &Validator{validate: validate}, nil
}

func validateNonNegative(fieldLevel validator.FieldLevel) bool {
	value, err := strconv.ParseFloat(fieldLevel.Field().String(), 64)
	return err == nil && value >= 0
}

// Listing validates the listing form.
func (v *Validator) Listing(form url.Values) Result[models.ListingPayload] {
	payload := models.ListingPayload{
		Title:       strings.TrimSpace(form.Get("title")),
		Description: strings.TrimSpace(form.Get("description")),
		Image:       strings.TrimSpace(form.Get("image")),
		Price:       strings.TrimSpace(form.Get("price")),
		Location:    strings.TrimSpace(form.Get("location")),
		Country:     strings.TrimSpace(form.Get("country")),
	}

	return check(v, payload)
}

// Review validates the review form.
func (v *Validator) Review(form url.Values) Result[models.ReviewPayload] {
	rating, _ := strconv.Atoi(strings.TrimSpace(form.Get("rating")))
	payload := models.ReviewPayload{
		Rating:  rating,
		Comment: strings.TrimSpace(form.Get("comment")),
	}

	return check(v, payload)
}

// Signup validates the registration form.
func (v *Validator) Signup(form url.Values) Result[models.SignupPayload] {
	payload := models.SignupPayload{
		Username: strings.TrimSpace(form.Get("username")),
		Email:    strings.TrimSpace(form.Get("email")),
		Password: form.Get("password"),
	}

	return check(v, payload)
}

// Login validates the login form.
func (v *Validator) Login(form url.Values) Result[models.LoginPayload] {
	payload := models.LoginPayload{
		Username: strings.TrimSpace(form.Get("username")),
		Password: form.Get("password"),
	}

	return check(v, payload)
}

func check[T any](v *Validator, payload T) Result[T] {
	result := Result[T]{Value: payload}

	err := v.validate.Struct(payload)
	if err == nil {
		return result
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		result.Errors = []FieldError{{Message: err.Error()}}
		return result
	}

	for _, fieldErr := range validationErrors {
		result.Errors = append(result.Errors, FieldError{
			Field:   fieldErr.Field(),
			Tag:     fieldErr.Tag(),
			Message: messageFor(fieldErr),
		})
	}

	return result
}

func messageFor(fieldErr validator.FieldError) string {
	field := fmt.Sprintf("%q", fieldErr.Field())

	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "numeric":
		return field + " must be a number"
	case "nonnegative":
		return field + " must be greater than or equal to 0"
	case "url":
		return field + " must be a valid uri"
	case "email":
		return field + " must be a valid email"
	case "min":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be at least %s characters long", field, fieldErr.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fieldErr.Param())
	case "max":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", field, fieldErr.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", field, fieldErr.Param())
	}

	return fmt.Sprintf("%s failed on the %s rule", field, fieldErr.Tag())
}
