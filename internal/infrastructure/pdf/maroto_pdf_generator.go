// Package pdf implementa la hoja imprimible de una distinta base.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Código + Descripción  │  Artículo + Versión         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: UdM / Lote / Estado / Precio                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  COMPONENTES: Línea | Código | Descripción | Cant | Costo    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CICLO: Fase | Operación | Centro | Tiempos                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Costo componentes / Costo fijo / COSTO TOTAL       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator genera la hoja de distinta usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateBOMPDF genera el PDF de GET_BOM_FULL y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateBOMPDF(_ context.Context, full *bom.Full) ([]byte, error) {
	if full == nil {
		return nil, fmt.Errorf("pdf: distinta vacía")
	}
	h := full.Header
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Distinta base "+h.Code, true).
		WithAuthor(h.CreatedBy, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(h))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(dataRow(h))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("COMPONENTES"))
	m.AddRows(componentHeaderRow())
	m.AddRows(componentRows(full.Components)...)

	if len(full.Routing) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("CICLO"))
		m.AddRows(routingHeaderRow())
		m.AddRows(routingRows(full.Routing)...)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(h, full.Components))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(h entity.BOM) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(h.Code, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(h.Description, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("DISTINTA BASE", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New("Artículo: "+nonEmpty(h.ItemCode, "—"), props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7}),
			text.New("Versión "+strconv.Itoa(h.Version)+" · "+h.UpdatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func dataRow(h entity.BOM) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("UdM: %s   |   Lote: %s   |   Estado: %s   |   Precio: %s",
				nonEmpty(h.UoM, "—"),
				formatQty(h.LotSize),
				nonEmpty(h.Status, "—"),
				formatMoney(h.Price),
			), props.Text{Size: 8, Top: 2, Color: colorGray}),
		),
	)
}

func sectionTitle(s string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
	}))
}

func cell(s string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
}

func componentHeaderRow() core.Row {
	return row.New(8).Add(
		headerCell("Línea", 1, align.Center),
		headerCell("Código", 2, align.Left),
		headerCell("Descripción", 4, align.Left),
		headerCell("Cant.", 1, align.Right),
		headerCell("UdM", 1, align.Center),
		headerCell("C. Unit.", 1, align.Right),
		headerCell("Total", 2, align.Right),
	)
}

// componentRows una fila por línea; las hijas de otra línea se sangran.
func componentRows(comps []entity.BOMComponent) []core.Row {
	out := make([]core.Row, 0, len(comps))
	for _, c := range comps {
		desc := c.ComponentDescription
		if c.ParentComponentID != nil {
			desc = "  └ " + desc
		}
		if c.ComponentType == entity.ComponentTypePhantom {
			desc += " (fantasma)"
		}
		out = append(out, row.New(7).Add(
			cell(strconv.Itoa(c.Line), 1, align.Center),
			cell(c.ComponentCode, 2, align.Left),
			cell(desc, 4, align.Left),
			cell(formatQty(c.Quantity), 1, align.Right),
			cell(c.UoM, 1, align.Center),
			cell(formatMoney(c.UnitCost), 1, align.Right),
			cell(formatMoney(c.TotalCost), 2, align.Right),
		))
	}
	return out
}

func routingHeaderRow() core.Row {
	return row.New(8).Add(
		headerCell("Fase", 1, align.Center),
		headerCell("Operación", 3, align.Left),
		headerCell("Centro", 2, align.Left),
		headerCell("T. Proc.", 2, align.Right),
		headerCell("T. Prep.", 2, align.Right),
		headerCell("Subcontr.", 2, align.Center),
	)
}

func routingRows(steps []entity.BOMRouting) []core.Row {
	out := make([]core.Row, 0, len(steps))
	for _, rt := range steps {
		sub := "—"
		if rt.Subcontracted {
			sub = nonEmpty(rt.SupplierCode, "sí")
		}
		out = append(out, row.New(7).Add(
			cell(strconv.Itoa(rt.RtgStep), 1, align.Center),
			cell(rt.Operation, 3, align.Left),
			cell(rt.WorkCenter, 2, align.Left),
			cell(formatQty(rt.ProcessingTime), 2, align.Right),
			cell(formatQty(rt.SetupTime), 2, align.Right),
			cell(sub, 2, align.Center),
		))
	}
	return out
}

func totalsRow(h entity.BOM, comps []entity.BOMComponent) core.Row {
	var lines, fixed decimal.Decimal
	for _, c := range comps {
		lines = lines.Add(c.TotalCost)
		fixed = fixed.Add(c.FixedCost)
	}
	label := func(s string, bold bool) core.Component {
		p := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2}
		if bold {
			p.Size, p.Color = 10, colorPrimary
		}
		return text.New(s, p)
	}
	value := func(s string, bold bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 1}
		if bold {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(s, p)
	}
	return row.New(22).Add(
		col.New(6),
		col.New(3).Add(
			label("Costo componentes:", false),
			label("Costo fijo:", false),
			label("COSTO TOTAL:", true),
		),
		col.New(3).Add(
			value(formatMoney(lines), false),
			value(formatMoney(fixed), false),
			value(formatMoney(h.TotalCost), true),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatQty(d decimal.Decimal) string {
	return d.String()
}

// formatMoney dos decimales con puntos de miles y coma decimal.
// Ej: 25000.5 → "25.000,50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
