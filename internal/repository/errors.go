// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"artfeed/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// isEmailConflict reports whether a unique violation concerns an email column.
func isEmailConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.Contains(pgErr.ConstraintName, "email")
	}
	return strings.Contains(strings.ToLower(err.Error()), "email")
}

// translateWriteError maps driver errors from INSERT/UPDATE onto AppErrors.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueConstraintError(err) {
		if isEmailConflict(err) {
			return models.NewValidationError("Email already in use")
		}
		return models.NewValidationError("Record already exists")
	}
	return models.NewInternalError(err)
}

// translateReadError maps gorm.ErrRecordNotFound onto a NOT_FOUND AppError.
func translateReadError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
