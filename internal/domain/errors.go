package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrLocked       = errors.New("la distinta está siendo modificada por otra operación")
)

// ValidationError indica que el caller omitió un campo obligatorio o envió una acción
// no soportada. Siempre se detecta antes de tocar el almacenamiento.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// OperationError es el error reportado por el almacenamiento con código distinto de cero.
// El mensaje se entrega tal cual al caller.
type OperationError struct {
	Code    int
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operación rechazada (%d): %s", e.Code, e.Message)
}

// VerificationMismatch indica que la relectura posterior a un acuse ambiguo no coincide
// con el cambio solicitado.
type VerificationMismatch struct {
	BOMID    int64
	Line     int
	Expected int64
	Actual   int64
}

func (e *VerificationMismatch) Error() string {
	if e.Actual == 0 {
		return fmt.Sprintf("verificación fallida: la línea %d de la distinta %d no existe", e.Line, e.BOMID)
	}
	return fmt.Sprintf("verificación fallida: la línea %d de la distinta %d tiene el componente %d (esperado %d)",
		e.Line, e.BOMID, e.Actual, e.Expected)
}

// AsOperationError extrae un *OperationError de la cadena de errores.
func AsOperationError(err error) (*OperationError, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}

// AsValidationError extrae un *ValidationError de la cadena de errores.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
