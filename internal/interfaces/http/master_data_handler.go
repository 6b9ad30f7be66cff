package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bom-api/internal/application/dto"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// MasterDataHandler catálogos de solo lectura para el editor de distintas.
type MasterDataHandler struct {
	repo repository.MasterDataRepository
	log  *logger.Logger
}

// NewMasterDataHandler construye el handler.
func NewMasterDataHandler(repo repository.MasterDataRepository, log *logger.Logger) *MasterDataHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &MasterDataHandler{repo: repo, log: log.Named("http.master")}
}

// WorkCenters godoc
// @Summary      Centros de trabajo
// @Tags         master-data
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.WorkCenterResponse]
// @Router       /api/master-data/work-centers [get]
func (h *MasterDataHandler) WorkCenters(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	rows, err := h.repo.ListWorkCenters(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.WorkCenterResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.WorkCenterResponse{CodedResponse: dto.CodedResponse{Code: r.Code, Description: r.Description}, HourlyCost: r.HourlyCost})
	}
	return c.JSON(dto.ListResponse[dto.WorkCenterResponse]{Success: dto.Succeeded, Items: out})
}

// Operations godoc
// @Summary      Operaciones de ciclo
// @Tags         master-data
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.OperationResponse]
// @Router       /api/master-data/operations [get]
func (h *MasterDataHandler) Operations(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	rows, err := h.repo.ListOperations(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.OperationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.OperationResponse{CodedResponse: dto.CodedResponse{Code: r.Code, Description: r.Description}, WorkCenter: r.WorkCenter})
	}
	return c.JSON(dto.ListResponse[dto.OperationResponse]{Success: dto.Succeeded, Items: out})
}

// Suppliers godoc
// @Summary      Proveedores
// @Tags         master-data
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.CodedResponse]
// @Router       /api/master-data/suppliers [get]
func (h *MasterDataHandler) Suppliers(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	rows, err := h.repo.ListSuppliers(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.CodedResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.CodedResponse{Code: r.Code, Description: r.Description})
	}
	return c.JSON(dto.ListResponse[dto.CodedResponse]{Success: dto.Succeeded, Items: out})
}

// Units godoc
// @Summary      Unidades de medida
// @Tags         master-data
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.CodedResponse]
// @Router       /api/master-data/units [get]
func (h *MasterDataHandler) Units(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	rows, err := h.repo.ListUnits(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.CodedResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.CodedResponse{Code: r.Code, Description: r.Description})
	}
	return c.JSON(dto.ListResponse[dto.CodedResponse]{Success: dto.Succeeded, Items: out})
}
