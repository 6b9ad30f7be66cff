package bom_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

func TestMutate_AddBOMYComponentes(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P1")
	a := f.item(t, "A")

	res, err := f.svc.Mutate(f.ctx, company, user, bom.AddBOM{TargetItemID: parent.ID})
	require.NoError(t, err)

	h, err := f.svc.GetHeader(f.ctx, company, bom.Ref{BOMID: res.BOMID})
	require.NoError(t, err)
	assert.Equal(t, "BOM_P1", h.Code)
	assert.Equal(t, 1, h.Version)
	assert.Equal(t, entity.BOMStatusDraft, h.Status)
	assert.Equal(t, "P1", h.ItemCode)

	_, err = f.svc.Mutate(f.ctx, company, user, bom.AddComponent{
		BOMID: res.BOMID, Component: bom.ComponentRef{Code: "A"},
		Data: bom.ComponentLine{Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)

	tmp, err := f.svc.Mutate(f.ctx, company, user, bom.AddComponent{
		BOMID: res.BOMID,
		Component: bom.ComponentRef{NewTemporary: &bom.TemporaryComponent{
			Description: "tubo 40x40", Nature: entity.NaturePurchased, BaseUoM: "M"}},
		Data: bom.ComponentLine{Quantity: decimal.NewFromInt(3), FixedCost: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "TMP-000001", tmp.CreatedComponentCode)

	comps, err := f.svc.GetComponents(f.ctx, company, bom.Ref{ItemID: parent.ID})
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, 10, comps[0].Line, "primera línea libre = 10")
	assert.Equal(t, 20, comps[1].Line, "siguiente = máximo + 10")
	assert.Equal(t, a.ID, comps[0].ComponentItemID)
	assert.Equal(t, "TMP-000001", comps[1].ComponentCode)
	assert.True(t, decimal.NewFromInt(10).Equal(comps[0].TotalCost), "2 x 5")

	h, err = f.svc.GetHeader(f.ctx, company, bom.Ref{BOMID: res.BOMID})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(11).Equal(h.TotalCost), "10 + 0 + costo fijo 1")

	assert.Equal(t, []appbom.EventType{appbom.EventBOMCreated, appbom.EventBOMUpdated, appbom.EventBOMUpdated}, f.events.types())
}

func TestMutate_UpdateParcialConservaImportes(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P1")

	res, err := f.svc.Mutate(f.ctx, company, user, bom.AddBOM{TargetItemID: parent.ID, Header: bom.Header{
		LotSize: bom.Amount(decimal.NewFromInt(50)), Price: bom.Amount(decimal.NewFromInt(99)),
		UnitCost: bom.Amount(decimal.NewFromInt(7)),
	}})
	require.NoError(t, err)

	_, err = f.svc.Mutate(f.ctx, company, user, bom.UpdateBOM{BOMID: res.BOMID, Header: bom.Header{Status: "in_production"}})
	require.NoError(t, err)

	h, err := f.svc.GetHeader(f.ctx, company, bom.Ref{BOMID: res.BOMID})
	require.NoError(t, err)
	assert.Equal(t, "in_production", h.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(h.LotSize), "lote conservado: %s", h.LotSize)
	assert.True(t, decimal.NewFromInt(99).Equal(h.Price), "precio conservado: %s", h.Price)
	assert.True(t, decimal.NewFromInt(7).Equal(h.UnitCost), "costo conservado: %s", h.UnitCost)

	_, err = f.svc.Mutate(f.ctx, company, user, bom.UpdateBOM{BOMID: res.BOMID, Header: bom.Header{Price: bom.Amount(decimal.Zero)}})
	require.NoError(t, err)
	h, err = f.svc.GetHeader(f.ctx, company, bom.Ref{BOMID: res.BOMID})
	require.NoError(t, err)
	assert.True(t, h.Price.IsZero(), "cero explícito sí se guarda")
	assert.True(t, decimal.NewFromInt(50).Equal(h.LotSize))
}

func TestExecute_ResultadoSegunMotor(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	a, b := f.item(t, "A"), f.item(t, "B")
	bomID := f.bomWith(t, parent, a, b)

	out, err := f.svc.Execute(f.ctx, company, user, bom.ReorderComponents{BOMID: bomID,
		Moves: []bom.LineMove{{Current: 10, Desired: 20}, {Current: 20, Desired: 10}}})
	require.NoError(t, err)
	require.NotNil(t, out.Reorder)
	assert.Nil(t, out.Replace)
	assert.Equal(t, 2, out.Reorder.Moved)
	assert.Equal(t, bomID, out.Result.BOMID)

	out, err = f.svc.Execute(f.ctx, company, user, bom.ReplaceComponent{BOMID: bomID, Line: 10, Component: bom.ComponentRef{ItemID: a.ID}})
	require.NoError(t, err)
	require.NotNil(t, out.Replace)
	assert.Equal(t, a.ID, out.Replace.ComponentItemID)

	out, err = f.svc.Execute(f.ctx, company, user, bom.DeleteComponent{BOMID: bomID, Line: 20})
	require.NoError(t, err)
	assert.Nil(t, out.Reorder)
	assert.Nil(t, out.Replace)
	assert.Equal(t, bomID, out.Result.BOMID)
}

func TestMutate_ValidacionAntesDeIO(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Mutate(f.ctx, company, user, bom.AddComponent{BOMID: 99})
	require.Error(t, err)
	_, ok := domain.AsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, f.events.types(), "nada se publica si la validación falla")
}

func TestMutate_ErroresDelAlmacen(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P1")
	a := f.item(t, "A")
	bomID := f.bomWith(t, parent, a)

	_, err := f.svc.Mutate(f.ctx, company, user, bom.AddComponent{
		BOMID: bomID, Component: bom.ComponentRef{ItemID: parent.ID},
		Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)},
	})
	opErr, ok := domain.AsOperationError(err)
	require.True(t, ok, "autorreferencia es un OperationError")
	assert.Equal(t, bom.CodeSelfReference, opErr.Code)
	assert.Equal(t, bom.MsgSelfReference, opErr.Message)

	line := 10
	_, err = f.svc.Mutate(f.ctx, company, user, bom.AddComponent{
		BOMID: bomID, Line: &line, Component: bom.ComponentRef{ItemID: a.ID},
		Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)},
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicate), "línea ocupada")

	_, err = f.svc.Mutate(f.ctx, company, user, bom.DeleteComponent{BOMID: bomID, Line: 90})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.svc.Mutate(f.ctx, company, user, bom.AddComponent{
		BOMID: bomID, Component: bom.ComponentRef{Code: "NO-EXISTE"},
		Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)},
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMutate_UpdateYDeleteComponente(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P1")
	a := f.item(t, "A")
	b := f.item(t, "B")
	bomID := f.bomWith(t, parent, a, b)

	_, err := f.svc.Mutate(f.ctx, company, user, bom.UpdateComponent{
		BOMID: bomID, Line: 20, Data: bom.ComponentLine{Quantity: decimal.NewFromInt(7), UnitCost: decimal.NewFromInt(2), Notes: "soldar"},
	})
	require.NoError(t, err)
	_, err = f.svc.Mutate(f.ctx, company, user, bom.DeleteComponent{BOMID: bomID, Line: 10})
	require.NoError(t, err)

	comps, err := f.svc.GetComponents(f.ctx, company, bom.Ref{BOMID: bomID})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, b.ID, comps[0].ComponentItemID)
	assert.Equal(t, "soldar", comps[0].Notes)
	assert.True(t, decimal.NewFromInt(14).Equal(comps[0].TotalCost))

	h, err := f.svc.GetHeader(f.ctx, company, bom.Ref{BOMID: bomID})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(14).Equal(h.TotalCost))
}

func TestMutate_Routing(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P1")
	bomID := f.bomWith(t, parent)

	for _, op := range []string{"CORTE", "SOLDADURA"} {
		_, err := f.svc.Mutate(f.ctx, company, user, bom.AddRouting{BOMID: bomID, Data: bom.RoutingData{Operation: op, WorkCenter: "WC1"}})
		require.NoError(t, err)
	}
	_, err := f.svc.Mutate(f.ctx, company, user, bom.UpdateRouting{BOMID: bomID, Step: 20, Data: bom.RoutingData{Operation: "PINTURA", Subcontracted: true, SupplierCode: "S1"}})
	require.NoError(t, err)

	rtg, err := f.svc.GetRouting(f.ctx, company, bom.Ref{BOMID: bomID})
	require.NoError(t, err)
	require.Len(t, rtg, 2)
	assert.Equal(t, 10, rtg[0].RtgStep)
	assert.Equal(t, "PINTURA", rtg[1].Operation)
	assert.True(t, rtg[1].Subcontracted)

	_, err = f.svc.Mutate(f.ctx, company, user, bom.DeleteRouting{BOMID: bomID, Step: 10})
	require.NoError(t, err)
	assert.Len(t, f.steps(t, bomID), 1)
}

func TestMutate_CopyAsignaVersion(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P1")
	a := f.item(t, "A")
	first := f.bomWith(t, parent, a)

	res, err := f.svc.Mutate(f.ctx, company, user, bom.CopyBOM{TargetItemID: parent.ID, SourceBOMID: first, CopyComponents: true})
	require.NoError(t, err)

	full, err := f.svc.GetFull(f.ctx, company, bom.Ref{ItemID: parent.ID})
	require.NoError(t, err)
	assert.Equal(t, res.BOMID, full.Header.ID, "la última versión es la canónica")
	assert.Equal(t, 2, full.Header.Version)
	assert.Len(t, full.Components, 1)
	assert.Empty(t, full.Routing)
	require.Len(t, full.Versions, 2)
	assert.Equal(t, 1, full.Versions[0].Version)

	v1 := 1
	h, err := f.svc.GetHeader(f.ctx, company, bom.Ref{ItemID: parent.ID, Version: &v1})
	require.NoError(t, err)
	assert.Equal(t, first, h.ID)
}

func TestRead(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P1")

	_, err := f.svc.GetFull(f.ctx, company, bom.Ref{ItemID: parent.ID})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "artículo sin distinta")

	_, err = f.svc.Read(f.ctx, bom.ReadQuery{Action: "GET_EVERYTHING", CompanyID: company, Ref: bom.Ref{BOMID: 1}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.svc.Read(f.ctx, bom.ReadQuery{Action: bom.ReadHeader, CompanyID: company})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "sin id ni artículo")

	bomID := f.bomWith(t, parent)
	_, err = f.svc.GetHeader(f.ctx, 2, bom.Ref{BOMID: bomID})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "otra empresa no ve la distinta")
}

func TestGetMultilevel(t *testing.T) {
	f := newFixture(t)
	top := f.item(t, "TOP")
	sub := f.item(t, "SUB")
	leaf := f.item(t, "LEAF")
	f.bomWith(t, sub, leaf)
	topID := f.bomWith(t, top, f.item(t, "X"), sub)

	ml, err := f.svc.GetMultilevel(f.ctx, company, bom.Ref{BOMID: topID}, bom.MultilevelOptions{})
	require.NoError(t, err)
	require.Len(t, ml.Components, 2)
	subNode := ml.Components[1]
	require.Len(t, subNode.Children, 1)
	assert.Equal(t, leaf.ID, subNode.Children[0].Component.ComponentItemID)
	assert.True(t, decimal.NewFromInt(2).Equal(subNode.Children[0].ExtendedQuantity), "2 x 1")
	assert.Equal(t, 2, ml.Depth)
}
