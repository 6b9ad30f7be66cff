package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bom-api/internal/application/dto"
	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// writeError traduce un error de dominio a su respuesta HTTP.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	if vErr, ok := domain.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: dto.Failed, Code: "VALIDATION", Message: vErr.Error(), Field: vErr.Field,
		})
	}
	if opErr, ok := domain.AsOperationError(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.OperationErrorResponse{
			Success: dto.Failed, Code: opErr.Code, Message: opErr.Message,
		})
	}
	var mismatch *domain.VerificationMismatch
	if errors.As(err, &mismatch) {
		return fail(c, fiber.StatusConflict, "VERIFICATION_FAILED", mismatch.Error())
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, domain.ErrLocked):
		return fail(c, fiber.StatusConflict, "LOCKED", err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fail(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fail(c, fiber.StatusGatewayTimeout, "TIMEOUT", "la operación excedió el tiempo límite")
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", "error interno")
}

func fail(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Success: dto.Failed, Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
}

// paramID lee un id numérico positivo de la ruta.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(name, "id numérico requerido")
	}
	return id, nil
}

// requireCompany corta la petición si el token no trajo empresa.
func requireCompany(c *fiber.Ctx) (int, bool) {
	companyID := GetCompanyID(c)
	if companyID <= 0 {
		_ = fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "company_id requerido")
		return 0, false
	}
	return companyID, true
}
