package postgres

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// mapError traduce errores de PostgreSQL a errores de dominio:
// 23505 -> ErrDuplicate, 23503 -> ErrNotFound, P0001 (RAISE) -> OperationError con el
// código en HINT, sin filas -> ErrNotFound.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", what, domain.ErrDuplicate)
		case "23503":
			return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		case "P0001":
			code, convErr := strconv.Atoi(strings.TrimSpace(pgErr.Hint))
			if convErr != nil || code == 0 {
				code = bom.CodeRejected
			}
			return &domain.OperationError{Code: code, Message: pgErr.Message}
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
