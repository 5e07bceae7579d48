// Package guard holds the precondition checks every mutation runs before
// touching the store. Each check returns a classified *apperr.Error.
package guard

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct checks the `validate` tags of a request body.
func Struct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.InvalidInput, "Invalid request body", err)
	}
	return apperr.Wrap(apperr.InvalidInput, describe(verrs[0]), err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}

// Key parses a path or body identifier into a store key. what names the
// resource in the error message ("user", "post").
func Key(raw, what string) (primitive.ObjectID, error) {
	id, err := repository.ParseKey(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.Wrap(apperr.InvalidKey, "Invalid "+what+" ID", err)
	}
	return id, nil
}

// OneOf rejects values outside the enumerated set.
func OneOf(value string, allowed []string, what string) error {
	if value == "" || !slices.Contains(allowed, value) {
		return apperr.New(apperr.InvalidEnum,
			fmt.Sprintf("Invalid %s: must be one of %s", what, strings.Join(allowed, ", ")))
	}
	return nil
}

// Exists turns an absent lookup result into NotFound.
func Exists[T any](doc *T, message string) (*T, error) {
	if doc == nil {
		return nil, apperr.New(apperr.NotFound, message)
	}
	return doc, nil
}

// Unique reports a conflict when a lookup by a unique field found something.
func Unique[T any](existing *T, message string) error {
	if existing != nil {
		return apperr.New(apperr.Conflict, message)
	}
	return nil
}
