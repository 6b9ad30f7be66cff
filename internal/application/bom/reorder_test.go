package bom_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
)

func TestReorderComponents_Rotacion(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	a, b, c := f.item(t, "A"), f.item(t, "B"), f.item(t, "C")
	f.store.SeedNextID(42)
	bomID := f.bomWith(t, parent, a, b, c)
	require.Equal(t, int64(42), bomID)

	res, err := f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, []bom.LineMove{
		{Current: 10, Desired: 30},
		{Current: 20, Desired: 10},
		{Current: 30, Desired: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Moved)
	assert.Zero(t, res.Missing)
	assert.Equal(t, map[int]int64{10: b.ID, 20: c.ID, 30: a.ID}, f.lines(t, bomID))
	assert.Contains(t, f.events.types(), appbom.EventBOMReordered)
}

func TestReorderComponents_LineaEnZonaTemporalNoSeAcepta(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	a, b := f.item(t, "A"), f.item(t, "B")
	bomID := f.bomWith(t, parent, a)

	high := bom.TempOrdinalBase
	_, err := f.svc.Mutate(f.ctx, company, user, bom.AddComponent{BOMID: bomID, Line: &high,
		Component: bom.ComponentRef{ItemID: b.ID}, Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	top := bom.MaxOrdinal
	_, err = f.svc.Mutate(f.ctx, company, user, bom.AddComponent{BOMID: bomID, Line: &top,
		Component: bom.ComponentRef{ItemID: b.ID}, Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)}})
	require.NoError(t, err)

	res, err := f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, []bom.LineMove{{Current: 10, Desired: 20}})
	require.NoError(t, err, "los temporales no chocan con la línea más alta")
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, map[int]int64{20: a.ID, bom.MaxOrdinal: b.ID}, f.lines(t, bomID))
}

func TestReorderComponents_Permutacion(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	items := []int64{}
	var bomID int64
	{
		a, b, c, d := f.item(t, "A"), f.item(t, "B"), f.item(t, "C"), f.item(t, "D")
		bomID = f.bomWith(t, parent, a, b, c, d)
		items = append(items, a.ID, b.ID, c.ID, d.ID)
	}
	before := f.lines(t, bomID)

	moves := []bom.LineMove{{Current: 10, Desired: 40}, {Current: 40, Desired: 20}, {Current: 20, Desired: 10}}
	_, err := f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, moves)
	require.NoError(t, err)

	after := f.lines(t, bomID)
	require.Len(t, after, len(before), "el número de líneas no cambia")
	seen := map[int64]bool{}
	for _, id := range after {
		seen[id] = true
	}
	for _, id := range items {
		assert.True(t, seen[id], "el multiconjunto de componentes se conserva")
	}
	for _, m := range moves {
		assert.Equal(t, before[m.Current], after[m.Desired])
	}
	assert.Equal(t, before[30], after[30], "la línea fuera de la lista no se mueve")
}

func TestReorderComponents_AtomicoAnteFallo(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	bomID := f.bomWith(t, parent, f.item(t, "A"), f.item(t, "B"), f.item(t, "C"))
	before := f.lines(t, bomID)

	// 3 movimientos de fase 1 + el primero de fase 2.
	f.store.FailOn("MoveComponentLine", 4, errors.New("conexión perdida"))
	_, err := f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, []bom.LineMove{
		{Current: 10, Desired: 30}, {Current: 20, Desired: 10}, {Current: 30, Desired: 20},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fase 2")
	assert.Equal(t, before, f.lines(t, bomID), "nada del reordenamiento queda aplicado")
	assert.Empty(t, f.events.typesSince(4), "no se publica en rollback")
}

func TestReorderComponents_ColisionFueraDeLaLista(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	bomID := f.bomWith(t, parent, f.item(t, "A"), f.item(t, "B"), f.item(t, "C"))
	before := f.lines(t, bomID)

	// 30 existe pero no participa: el destino choca con la unicidad de línea.
	_, err := f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, []bom.LineMove{
		{Current: 10, Desired: 30}, {Current: 20, Desired: 10},
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
	assert.Equal(t, before, f.lines(t, bomID))
}

func TestReorderComponents_LineaInexistente(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	a, b := f.item(t, "A"), f.item(t, "B")
	bomID := f.bomWith(t, parent, a, b)

	res, err := f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, []bom.LineMove{
		{Current: 10, Desired: 20}, {Current: 20, Desired: 10}, {Current: 70, Desired: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Missing)
	assert.Equal(t, 2, res.Moved)
	assert.Equal(t, map[int]int64{10: b.ID, 20: a.ID}, f.lines(t, bomID))
}

func TestReorderComponents_Errores(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	bomID := f.bomWith(t, parent, f.item(t, "A"))

	_, err := f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.svc.Reorderer().ReorderComponents(f.ctx, company, user, 999, []bom.LineMove{{Current: 10, Desired: 20}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	unlock, err := f.locker.Lock(context.Background(), appbom.BOMLockKey(company, bomID))
	require.NoError(t, err)
	_, err = f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, []bom.LineMove{{Current: 10, Desired: 20}})
	assert.True(t, errors.Is(err, domain.ErrLocked))
	unlock()

	_, err = f.svc.Reorderer().ReorderComponents(f.ctx, company, user, bomID, []bom.LineMove{{Current: 10, Desired: 20}})
	assert.NoError(t, err, "liberado el candado se puede reordenar")
}

func TestReorderRouting_MultiplosDeDiez(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	bomID := f.bomWith(t, parent)
	for _, step := range []int{5, 17, 40} {
		s := step
		_, err := f.svc.Mutate(f.ctx, company, user, bom.AddRouting{BOMID: bomID, Step: &s, Data: bom.RoutingData{Operation: "OP"}})
		require.NoError(t, err)
	}
	ops := map[int]int64{}
	for _, rt := range f.steps(t, bomID) {
		ops[rt.RtgStep] = rt.ID
	}

	// El destino recibido se ignora: manda la posición en la lista.
	res, err := f.svc.Mutate(f.ctx, company, user, bom.ReorderRouting{BOMID: bomID, Moves: []bom.StepMove{
		{Current: 40, Desired: 1}, {Current: 5, Desired: 99}, {Current: 17, Desired: 3},
	}})
	require.NoError(t, err)
	assert.Equal(t, bomID, res.BOMID)

	got := f.steps(t, bomID)
	require.Len(t, got, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{got[0].RtgStep, got[1].RtgStep, got[2].RtgStep})
	assert.Equal(t, ops[40], got[0].ID)
	assert.Equal(t, ops[5], got[1].ID)
	assert.Equal(t, ops[17], got[2].ID)
}

func TestMutate_ReorderDelegado(t *testing.T) {
	f := newFixture(t)
	parent := f.item(t, "P")
	a, b := f.item(t, "A"), f.item(t, "B")
	bomID := f.bomWith(t, parent, a, b)

	res, err := f.svc.Mutate(f.ctx, company, user, bom.ReorderComponents{BOMID: bomID, Moves: []bom.LineMove{
		{Current: 10, Desired: 20}, {Current: 20, Desired: 10},
	}})
	require.NoError(t, err)
	assert.Equal(t, "2 líneas reordenadas", res.Msg)
	assert.Equal(t, map[int]int64{10: b.ID, 20: a.ID}, f.lines(t, bomID))
}
