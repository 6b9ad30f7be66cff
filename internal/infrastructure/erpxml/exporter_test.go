package erpxml

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

func TestExport(t *testing.T) {
	parent := int64(100)
	full := &bom.Full{
		Header: entity.BOM{ID: 42, CompanyID: 1, ItemCode: "P1", Code: "BOM_P1", Version: 3,
			TotalCost: decimal.RequireFromString("12.5")},
		Components: []entity.BOMComponent{
			{ID: 100, Line: 10, ComponentCode: "A", Quantity: decimal.NewFromInt(2), ComponentType: entity.ComponentTypeNormal},
			{ID: 101, Line: 20, ComponentCode: "B & C", Quantity: decimal.RequireFromString("0.25"), ParentComponentID: &parent, Notes: "ver plano"},
		},
		Routing: []entity.BOMRouting{
			{RtgStep: 10, Operation: "CORTE", Subcontracted: true, SupplierCode: "S9", SubcontractCost: decimal.NewFromInt(7)},
		},
	}
	e := NewExporter()
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	out, err := e.Export(full)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "BillOfMaterials", root.Tag)
	assert.Equal(t, "2026-01-02T03:04:05Z", root.SelectAttrValue("exportedAt", ""))
	assert.Equal(t, "3", root.FindElement("./Header/Version").Text())
	assert.Equal(t, "12.5", root.FindElement("./Header/TotalCost").Text())

	comps := root.FindElements("./Components/Component")
	require.Len(t, comps, 2)
	assert.Equal(t, "10", comps[1].SelectAttrValue("parentLine", ""))
	assert.Equal(t, "B & C", comps[1].FindElement("ItemCode").Text(), "escapado y restaurado")
	assert.Nil(t, comps[0].FindElement("Notes"))
	assert.Equal(t, "", comps[0].SelectAttrValue("parentLine", ""))

	step := root.FindElement("./Routing/RoutingStep[@step='10']")
	require.NotNil(t, step)
	assert.Equal(t, "S9", step.FindElement("Subcontract").SelectAttrValue("supplier", ""))

	_, err = e.Export(nil)
	assert.Error(t, err)
}
