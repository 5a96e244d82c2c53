// Package service holds the business rules of the task API: account
// registration and login, and CRUD over the shared task list. Every
// operation is a fresh read-modify-write against the backing collection;
// nothing is cached between calls.
package service

import (
	"errors"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/tareas/internal/models"
)

var (
	ErrMissingField       = models.ErrMissingField
	ErrDuplicateUser      = models.ErrDuplicateUser
	ErrInvalidCredentials = models.ErrInvalidCredentials
	ErrNotFound           = models.ErrNotFound
)

var validate = validator.New()

// validateRequired reports ErrMissingField when a `validate:"required"`
// field of request is empty.
func validateRequired(request any) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return errors.Join(ErrMissingField, err)
	}

	return err
}
