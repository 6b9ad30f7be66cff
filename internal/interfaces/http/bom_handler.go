package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/application/dto"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// BOMPDFRenderer genera la hoja imprimible de una distinta.
type BOMPDFRenderer interface {
	GenerateBOMPDF(ctx context.Context, full *bom.Full) ([]byte, error)
}

// BOMXMLExporter genera el XML de intercambio con el ERP.
type BOMXMLExporter interface {
	Export(full *bom.Full) ([]byte, error)
}

// BOMHandler maneja las peticiones HTTP de distintas base (protegido).
type BOMHandler struct {
	svc *appbom.Service
	pdf BOMPDFRenderer
	xml BOMXMLExporter
	log *logger.Logger
}

// NewBOMHandler construye el handler. pdf y xml pueden ser nil: los endpoints responden 501.
func NewBOMHandler(svc *appbom.Service, pdf BOMPDFRenderer, xml BOMXMLExporter, log *logger.Logger) *BOMHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BOMHandler{svc: svc, pdf: pdf, xml: xml, log: log.Named("http.bom")}
}

// Mutate godoc
// @Summary      Mutación estructural de distinta
// @Description  Acciones ADD, UPDATE, COPY, ADD_COMPONENT, UPDATE_COMPONENT, DELETE_COMPONENT, ADD_ROUTING, UPDATE_ROUTING, DELETE_ROUTING, REORDER_COMPONENTS, REORDER_ROUTING, REPLACE_COMPONENT, REPLACE_WITH_NEW_COMPONENT
// @Tags         boms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BOMRequest  true  "Acción y datos"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.OperationErrorResponse
// @Router       /api/boms [post]
func (h *BOMHandler) Mutate(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	var in dto.BOMRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := in.ToMutation()
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.svc.Execute(c.UserContext(), companyID, GetUserID(c), m)
	if err != nil {
		return writeError(c, h.log, err)
	}
	switch {
	case out.Reorder != nil:
		return c.JSON(reorderResponse(out.Reorder))
	case out.Replace != nil:
		return c.JSON(replaceResponse(out.Replace))
	}
	status := fiber.StatusOK
	if a := m.Action(); a == bom.ActionAdd || a == bom.ActionCopy {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(mutationResponse(out.Result))
}

// Query godoc
// @Summary      Lectura de distinta
// @Description  Acciones GET_BOM, GET_BOM_COMPONENTS, GET_BOM_ROUTING, GET_BOM_FULL, GET_BOM_MULTILEVEL. Identificación por id o por itemId (+version).
// @Tags         boms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BOMRequest  true  "Acción e identificación"
// @Success      200   {object}  dto.FullResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/boms/query [post]
func (h *BOMHandler) Query(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	var in dto.BOMRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	q, err := in.ToReadQuery(companyID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.svc.Read(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	switch v := out.(type) {
	case *entity.BOM:
		return c.JSON(dto.HeaderResult{Success: dto.Succeeded, BOM: dto.NewBOMResponse(*v)})
	case []entity.BOMComponent:
		return c.JSON(dto.ComponentsResult{Success: dto.Succeeded, Components: dto.NewComponentList(v)})
	case []entity.BOMRouting:
		return c.JSON(dto.RoutingResult{Success: dto.Succeeded, Routing: dto.NewRoutingList(v)})
	case *bom.Full:
		return c.JSON(dto.NewFullResult(v))
	case *bom.Multilevel:
		return c.JSON(dto.NewMultilevelResult(v))
	}
	return writeError(c, h.log, fmt.Errorf("lectura %s: tipo de resultado inesperado %T", q.Action, out))
}

// GetFull godoc
// @Summary      Distinta completa por id
// @Tags         boms
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la distinta"
// @Success      200  {object}  dto.FullResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id} [get]
func (h *BOMHandler) GetFull(c *fiber.Ctx) error {
	full, ok, err := h.loadFull(c)
	if !ok {
		return err
	}
	return c.JSON(dto.NewFullResult(full))
}

// GetByItem godoc
// @Summary      Distinta de un artículo (última versión o la indicada)
// @Tags         boms
// @Security     Bearer
// @Produce      json
// @Param        id       path   int  true   "ID del artículo"
// @Param        version  query  int  false  "Versión"
// @Success      200  {object}  dto.FullResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/bom [get]
func (h *BOMHandler) GetByItem(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ref := bom.Ref{ItemID: itemID}
	if v := c.QueryInt("version", 0); v != 0 {
		ref.Version = &v
	}
	full, err := h.svc.GetFull(c.UserContext(), companyID, ref)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewFullResult(full))
}

// GetMultilevel godoc
// @Summary      Explosión multinivel
// @Tags         boms
// @Security     Bearer
// @Produce      json
// @Param        id               path   int   true   "ID de la distinta"
// @Param        maxLevel         query  int   false  "Niveles"  default(10)
// @Param        expandPhantoms   query  bool  false  "Expandir fantasmas"
// @Param        includeDisabled  query  bool  false  "Incluir deshabilitados"
// @Param        includeRouting   query  bool  false  "Incluir ciclos"
// @Success      200  {object}  dto.MultilevelResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id}/multilevel [get]
func (h *BOMHandler) GetMultilevel(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	opts := bom.MultilevelOptions{
		MaxLevel:        c.QueryInt("maxLevel", 0),
		ExpandPhantoms:  c.QueryBool("expandPhantoms", false),
		IncludeDisabled: c.QueryBool("includeDisabled", false),
		IncludeRouting:  c.QueryBool("includeRouting", false),
	}
	m, err := h.svc.GetMultilevel(c.UserContext(), companyID, bom.Ref{BOMID: id}, opts)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewMultilevelResult(m))
}

// PDF godoc
// @Summary      Hoja imprimible de la distinta
// @Tags         boms
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la distinta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id}/pdf [get]
func (h *BOMHandler) PDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return fail(c, fiber.StatusNotImplemented, "NOT_CONFIGURED", "generador PDF no configurado")
	}
	full, ok, err := h.loadFull(c)
	if !ok {
		return err
	}
	doc, err := h.pdf.GenerateBOMPDF(c.UserContext(), full)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s-v%d.pdf"`, full.Header.Code, full.Header.Version))
	return c.Send(doc)
}

// XML godoc
// @Summary      XML de intercambio ERP
// @Tags         boms
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  int  true  "ID de la distinta"
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id}/xml [get]
func (h *BOMHandler) XML(c *fiber.Ctx) error {
	if h.xml == nil {
		return fail(c, fiber.StatusNotImplemented, "NOT_CONFIGURED", "exportador XML no configurado")
	}
	full, ok, err := h.loadFull(c)
	if !ok {
		return err
	}
	doc, err := h.xml.Export(full)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-v%d.xml"`, full.Header.Code, full.Header.Version))
	return c.Send(doc)
}

// CopyFromItem godoc
// @Summary      Copiar distinta desde otro artículo o desde el ERP
// @Tags         boms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CopyFromItemRequest  true  "Origen y destino"
// @Success      200   {object}  dto.CopyFromItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/boms/copy-from-item [post]
func (h *BOMHandler) CopyFromItem(c *fiber.Ctx) error {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil
	}
	var in dto.CopyFromItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.svc.Composer().CopyBOMFromItem(c.UserContext(), companyID, GetUserID(c), appbom.CopyFromItemInput{
		TargetItemID:    in.TargetItemID,
		SourceItemID:    in.SourceItemID,
		SourceCompanyID: in.SourceCompanyID,
		SourceType:      in.SourceType,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CopyFromItemResponse{
		Success:      dto.SuccessFlag(res.Success),
		Message:      res.Msg,
		BOMID:        res.BOMID,
		Added:        res.Added,
		Skipped:      res.Skipped,
		CreatedItems: res.CreatedItems,
	})
}

// loadFull lee GET_BOM_FULL del id de la ruta. ok=false indica que la respuesta ya se escribió.
func (h *BOMHandler) loadFull(c *fiber.Ctx) (*bom.Full, bool, error) {
	companyID, ok := requireCompany(c)
	if !ok {
		return nil, false, nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return nil, false, writeError(c, h.log, err)
	}
	full, err := h.svc.GetFull(c.UserContext(), companyID, bom.Ref{BOMID: id})
	if err != nil {
		return nil, false, writeError(c, h.log, err)
	}
	return full, true, nil
}

func mutationResponse(r *bom.MutationResult) dto.MutationResponse {
	return dto.MutationResponse{
		Success:              dto.Succeeded,
		BOMID:                r.BOMID,
		Message:              r.Msg,
		CreatedComponentCode: r.CreatedComponentCode,
	}
}

func reorderResponse(r *appbom.ReorderResult) dto.ReorderResponse {
	return dto.ReorderResponse{
		MutationResponse: mutationResponse(r.MutationResult()),
		Moved:            r.Moved,
		Missing:          r.Missing,
		Final:            r.Final,
	}
}

func replaceResponse(r *appbom.ReplaceResult) dto.ReplaceResponse {
	return dto.ReplaceResponse{
		MutationResponse: mutationResponse(r.MutationResult()),
		Line:             r.Line,
		ComponentItemID:  r.ComponentItemID,
		VerifiedByReread: r.VerifiedByReread,
		CopiedBOMID:      r.CopiedBOMID,
	}
}
