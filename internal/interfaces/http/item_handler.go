package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bom-api/internal/application/dto"
	"github.com/jhoicas/bom-api/internal/application/item"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// ItemHandler maneja las peticiones HTTP de artículos de proyecto (protegido).
type ItemHandler struct {
	svc *item.Service
	log *logger.Logger
}

// NewItemHandler construye el handler.
func NewItemHandler(svc *item.Service, log *logger.Logger) *ItemHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ItemHandler{svc: svc, log: log.Named("http.item")}
}

// Create godoc
// @Summary      Crear artículo
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Datos del artículo"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	it, err := h.svc.Registry().Create(c.UserContext(), companyID, GetUserID(c), item.CreateInput{
		Code:        in.Code,
		Description: in.Description,
		Diameter:    in.Diameter,
		Width:       in.Width,
		Height:      in.Height,
		Length:      in.Length,
		Nature:      in.Nature,
		BaseUoM:     in.BaseUoM,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewItemResponse(it))
}

// GetByID godoc
// @Summary      Obtener artículo por ID
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	it, err := h.svc.Registry().Get(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewItemResponse(it))
}

// List godoc
// @Summary      Listar artículos o buscar por código
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        code    query  string  false  "Código exacto (prefiere el vinculado al ERP)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.ItemListResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	reg := h.svc.Registry()
	if code := strings.TrimSpace(c.Query("code")); code != "" {
		it, err := reg.FindByCode(c.UserContext(), companyID, code)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(dto.ItemListResponse{Items: []dto.ItemResponse{dto.NewItemResponse(it)}, Page: dto.PageResponse{Limit: 1, Total: 1}})
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	items, err := reg.List(c.UserContext(), companyID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NewItemResponse(it))
	}
	return c.JSON(dto.ItemListResponse{Items: out, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Update godoc
// @Summary      Actualizar artículo
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del artículo"
// @Param        body  body  dto.UpdateItemRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	it, err := h.svc.Registry().Update(c.UserContext(), companyID, id, item.UpdateInput{
		Description: in.Description,
		Diameter:    in.Diameter,
		Width:       in.Width,
		Height:      in.Height,
		Length:      in.Length,
		Nature:      in.Nature,
		BaseUoM:     in.BaseUoM,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewItemResponse(it))
}

// CheckDisable godoc
// @Summary      Evaluar si el artículo puede deshabilitarse
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo"
// @Success      200  {object}  dto.DisableCheckResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/disable-check [get]
func (h *ItemHandler) CheckDisable(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	chk, err := h.svc.Registry().CheckDisable(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.DisableCheckResponse{
		Success:       dto.Succeeded,
		CanDisable:    dto.SuccessFlag(chk.CanDisable),
		Reason:        chk.Reason,
		ProjectCount:  chk.ProjectCount,
		BOMUsageCount: chk.BOMUsageCount,
	})
}

// Disable godoc
// @Summary      Deshabilitar artículo
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo"
// @Success      200  {object}  dto.ResultResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/disable [post]
func (h *ItemHandler) Disable(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.svc.Disable(c.UserContext(), companyID, id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ResultResponse{Success: dto.Succeeded, Message: "artículo deshabilitado"})
}

// ImportERP godoc
// @Summary      Importar artículo ERP a un proyecto
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ImportERPItemRequest  true  "Código ERP y proyecto"
// @Success      200   {object}  dto.ImportERPItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/import-erp [post]
func (h *ItemHandler) ImportERP(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	var in dto.ImportERPItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.svc.ImportERPItem(c.UserContext(), companyID, GetUserID(c), item.ImportInput{
		ProjectID: in.ProjectID,
		ERPCode:   in.ERPCode,
		ImportBOM: in.ImportBOM,
		MaxLevels: in.MaxLevels,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ImportERPItemResponse{
		Success:      dto.Succeeded,
		Item:         dto.NewItemResponse(res.Item),
		BOMsImported: res.BOMsImported,
	})
}

