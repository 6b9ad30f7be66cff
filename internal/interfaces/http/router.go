package http

import (
	"github.com/gofiber/fiber/v2"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/application/item"
	"github.com/jhoicas/bom-api/internal/application/reference"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/pkg/jwt"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	BOMs       *appbom.Service
	Items      *item.Service
	References *reference.Linker
	MasterData repository.MasterDataRepository
	PDF        BOMPDFRenderer
	XML        BOMXMLExporter
	Log        *logger.Logger
	JWTSecret  string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	readers := RequireRole(jwt.RoleAdmin, jwt.RoleEngineer, jwt.RoleViewer)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleEngineer)
	admins := RequireRole(jwt.RoleAdmin)

	// Distintas
	bomHandler := NewBOMHandler(deps.BOMs, deps.PDF, deps.XML, deps.Log)
	boms := api.Group("/boms")
	boms.Post("/", writers, bomHandler.Mutate)
	boms.Post("/query", readers, bomHandler.Query)
	boms.Post("/copy-from-item", writers, bomHandler.CopyFromItem)
	boms.Get("/:id", readers, bomHandler.GetFull)
	boms.Get("/:id/multilevel", readers, bomHandler.GetMultilevel)
	boms.Get("/:id/pdf", readers, bomHandler.PDF)
	boms.Get("/:id/xml", readers, bomHandler.XML)

	// Artículos
	itemHandler := NewItemHandler(deps.Items, deps.Log)
	refHandler := NewReferenceHandler(deps.References, deps.Log)
	items := api.Group("/items")
	items.Post("/", writers, itemHandler.Create)
	items.Get("/", readers, itemHandler.List)
	items.Post("/import-erp", writers, itemHandler.ImportERP)
	items.Get("/:id", readers, itemHandler.GetByID)
	items.Put("/:id", writers, itemHandler.Update)
	items.Get("/:id/disable-check", readers, itemHandler.CheckDisable)
	items.Post("/:id/disable", admins, itemHandler.Disable)
	items.Get("/:id/bom", readers, bomHandler.GetByItem)
	items.Get("/:id/references", readers, refHandler.ListBySource)
	items.Get("/:id/references/target", readers, refHandler.ResolveTarget)

	// Referencias intercompañía
	refs := api.Group("/references")
	refs.Post("/", writers, refHandler.Create)
	refs.Put("/:id/target", writers, refHandler.AttachTarget)
	refs.Delete("/:id", writers, refHandler.Delete)

	// Datos maestros
	masterHandler := NewMasterDataHandler(deps.MasterData, deps.Log)
	master := api.Group("/master-data", readers)
	master.Get("/work-centers", masterHandler.WorkCenters)
	master.Get("/operations", masterHandler.Operations)
	master.Get("/suppliers", masterHandler.Suppliers)
	master.Get("/units", masterHandler.Units)
}
