package services

import (
	"context"

	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateInput runs struct tag validation and reports failures as ErrInvalidInput
func validateInput(ctx context.Context, payload interface{}) error {
	if err := validate.StructCtx(ctx, payload); err != nil {
		return errors.Mark(errors.Wrap(err, "validation failed"), models.ErrInvalidInput)
	}
	return nil
}
