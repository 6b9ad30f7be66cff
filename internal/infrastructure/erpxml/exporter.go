// Package erpxml exporta una distinta al XML de intercambio del ERP.
package erpxml

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// Namespace del documento de intercambio.
const NsBOM = "urn:bom-api:erp:bill-of-materials:1"

// Exporter construye el documento <BillOfMaterials>.
type Exporter struct {
	now func() time.Time
}

// NewExporter crea el exportador.
func NewExporter() *Exporter {
	return &Exporter{now: func() time.Time { return time.Now().UTC() }}
}

// Export serializa cabecera, componentes y ciclo de GET_BOM_FULL.
func (e *Exporter) Export(full *bom.Full) ([]byte, error) {
	if full == nil {
		return nil, fmt.Errorf("erpxml: distinta vacía")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	h := full.Header
	root := doc.CreateElement("BillOfMaterials")
	root.CreateAttr("xmlns", NsBOM)
	root.CreateAttr("exportedAt", e.now().Format(time.RFC3339))

	hdr := root.CreateElement("Header")
	text(hdr, "Id", strconv.FormatInt(h.ID, 10))
	text(hdr, "CompanyId", strconv.Itoa(h.CompanyID))
	text(hdr, "ItemCode", h.ItemCode)
	text(hdr, "Code", h.Code)
	text(hdr, "Description", h.Description)
	text(hdr, "Version", strconv.Itoa(h.Version))
	text(hdr, "UoM", h.UoM)
	text(hdr, "Status", h.Status)
	amount(hdr, "UnitCost", h.UnitCost)
	amount(hdr, "TotalCost", h.TotalCost)
	amount(hdr, "Price", h.Price)
	amount(hdr, "LotSize", h.LotSize)

	comps := root.CreateElement("Components")
	lineOf := make(map[int64]int, len(full.Components))
	for _, c := range full.Components {
		lineOf[c.ID] = c.Line
	}
	for _, c := range full.Components {
		comps.AddChild(componentElement(c, lineOf))
	}

	rtg := root.CreateElement("Routing")
	for _, rt := range full.Routing {
		rtg.AddChild(routingElement(rt))
	}

	doc.Indent(2)
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("erpxml: serializar: %w", err)
	}
	return out.Bytes(), nil
}

// componentElement la jerarquía se expresa con el número de línea del padre.
func componentElement(c entity.BOMComponent, lineOf map[int64]int) *etree.Element {
	el := etree.NewElement("Component")
	el.CreateAttr("line", strconv.Itoa(c.Line))
	if c.ParentComponentID != nil {
		if parent, ok := lineOf[*c.ParentComponentID]; ok {
			el.CreateAttr("parentLine", strconv.Itoa(parent))
		}
	}
	text(el, "ItemCode", c.ComponentCode)
	text(el, "Description", c.ComponentDescription)
	text(el, "Type", c.ComponentType)
	amount(el, "Quantity", c.Quantity)
	text(el, "UoM", c.UoM)
	amount(el, "UnitCost", c.UnitCost)
	amount(el, "TotalCost", c.TotalCost)
	amount(el, "FixedCost", c.FixedCost)
	if c.Notes != "" {
		text(el, "Notes", c.Notes)
	}
	return el
}

func routingElement(rt entity.BOMRouting) *etree.Element {
	el := etree.NewElement("RoutingStep")
	el.CreateAttr("step", strconv.Itoa(rt.RtgStep))
	text(el, "Operation", rt.Operation)
	text(el, "WorkCenter", rt.WorkCenter)
	amount(el, "ProcessingTime", rt.ProcessingTime)
	amount(el, "SetupTime", rt.SetupTime)
	amount(el, "Workers", rt.Workers)
	amount(el, "SetupWorkers", rt.SetupWorkers)
	if rt.Subcontracted {
		sub := el.CreateElement("Subcontract")
		sub.CreateAttr("supplier", rt.SupplierCode)
		sub.SetText(rt.SubcontractCost.String())
	}
	if rt.Notes != "" {
		text(el, "Notes", rt.Notes)
	}
	return el
}

func text(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}

func amount(parent *etree.Element, tag string, d decimal.Decimal) {
	parent.CreateElement(tag).SetText(d.String())
}
