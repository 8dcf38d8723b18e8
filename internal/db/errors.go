package db

import (
	"errors"

	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

// StockConstraint is the check constraint that keeps products.stock_quantity non-negative.
const StockConstraint = "products_stock_non_negative"

// Translate maps driver errors onto the domain error kinds. Errors it does not recognise are returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return domain.ErrAlreadyExists
	case codeCheckViolation:
		if pgErr.ConstraintName == StockConstraint {
			return domain.ErrInsufficientStock
		}
		return domain.Errorf(domain.ErrInvalidArgument, "constraint %s violated", pgErr.ConstraintName)
	case codeForeignKeyViolation, codeInvalidText:
		// A malformed or dangling id resolves to nothing.
		return domain.ErrNotFound
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation, optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsForeignKeyViolation reports whether err was raised by a foreign key constraint, e.g. deleting a referenced row.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
