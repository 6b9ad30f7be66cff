package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bom-api/internal/application/dto"
	"github.com/jhoicas/bom-api/internal/application/reference"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// ReferenceHandler referencias intercompañía (protegido). La empresa origen es la del token.
type ReferenceHandler struct {
	linker *reference.Linker
	log    *logger.Logger
}

// NewReferenceHandler construye el handler.
func NewReferenceHandler(linker *reference.Linker, log *logger.Logger) *ReferenceHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReferenceHandler{linker: linker, log: log.Named("http.reference")}
}

// Create godoc
// @Summary      Crear referencia intercompañía
// @Tags         references
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReferenceRequest  true  "referenceData"
// @Success      201   {object}  dto.ReferenceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/references [post]
func (h *ReferenceHandler) Create(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	var in dto.CreateReferenceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	d := in.ReferenceData
	ref, err := h.linker.Create(c.UserContext(), companyID, GetUserID(c), reference.CreateInput{
		SourceItemID:    d.SourceItemID,
		TargetCompanyID: d.TargetCompanyID,
		TargetItemID:    d.TargetItemID,
		Nature:          d.Nature,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewReferenceResponse(ref))
}

// ListBySource godoc
// @Summary      Referencias salientes de un artículo
// @Tags         references
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo origen"
// @Success      200  {array}   dto.ReferenceResponse
// @Router       /api/items/{id}/references [get]
func (h *ReferenceHandler) ListBySource(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	refs, err := h.linker.ListBySource(c.UserContext(), companyID, itemID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ReferenceResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, dto.NewReferenceResponse(r))
	}
	return c.JSON(out)
}

// ResolveTarget godoc
// @Summary      Artículo destino de la referencia
// @Tags         references
// @Security     Bearer
// @Produce      json
// @Param        id      path   int     true  "ID del artículo origen"
// @Param        nature  query  string  true  "purchase | subcontract"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/references/target [get]
func (h *ReferenceHandler) ResolveTarget(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	it, err := h.linker.ResolveTarget(c.UserContext(), companyID, itemID, c.Query("nature"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewItemResponse(it))
}

// AttachTarget godoc
// @Summary      Fijar el artículo destino
// @Tags         references
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la referencia"
// @Param        body  body  dto.AttachTargetRequest  true  "Artículo destino"
// @Success      200   {object}  dto.ReferenceResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/references/{id}/target [put]
func (h *ReferenceHandler) AttachTarget(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.AttachTargetRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ref, err := h.linker.AttachTarget(c.UserContext(), companyID, id, in.TargetItemID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewReferenceResponse(ref))
}

// Delete godoc
// @Summary      Eliminar referencia
// @Tags         references
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la referencia"
// @Success      200  {object}  dto.ResultResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/references/{id} [delete]
func (h *ReferenceHandler) Delete(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.linker.Delete(c.UserContext(), companyID, id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ResultResponse{Success: dto.Succeeded, Message: "referencia eliminada"})
}
