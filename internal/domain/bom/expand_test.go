package bom_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// fakeTree distintas indexadas por artículo; cada distinta usa como id el id del artículo * 100.
type fakeTree struct {
	comps    map[int64][]entity.BOMComponent // artículo padre -> componentes
	disabled map[int64]bool
}

func (f *fakeTree) add(parent, child int64, qty int64, typ string) {
	if f.comps == nil {
		f.comps = map[int64][]entity.BOMComponent{}
	}
	line := (len(f.comps[parent]) + 1) * 10
	f.comps[parent] = append(f.comps[parent], entity.BOMComponent{
		CompanyID:       1,
		BOMID:           parent * 100,
		Line:            line,
		ComponentItemID: child,
		ComponentType:   typ,
		Quantity:        decimal.NewFromInt(qty),
	})
}

func (f *fakeTree) LatestBOM(_ context.Context, companyID int, itemID int64) (*entity.BOM, error) {
	if _, ok := f.comps[itemID]; !ok {
		return nil, nil
	}
	return &entity.BOM{ID: itemID * 100, CompanyID: companyID, ItemID: itemID, Version: 1}, nil
}

func (f *fakeTree) Components(_ context.Context, _ int, bomID int64) ([]entity.BOMComponent, error) {
	return f.comps[bomID/100], nil
}

func (f *fakeTree) Routing(_ context.Context, companyID int, bomID int64) ([]entity.BOMRouting, error) {
	return []entity.BOMRouting{{CompanyID: companyID, BOMID: bomID, RtgStep: 10, Operation: "OP"}}, nil
}

func (f *fakeTree) isDisabled(_ context.Context, _ int, itemID int64) (bool, error) {
	return f.disabled[itemID], nil
}

func root(item int64) entity.BOM {
	return entity.BOM{ID: item * 100, CompanyID: 1, ItemID: item, Version: 1}
}

func TestExpand_CantidadesAcumuladas(t *testing.T) {
	tree := &fakeTree{}
	tree.add(1, 2, 2, entity.ComponentTypeNormal)
	tree.add(2, 3, 3, entity.ComponentTypeNormal)
	tree.add(1, 4, 1, entity.ComponentTypeNormal)

	ml, err := bom.Expand(context.Background(), tree, tree.isDisabled, root(1), bom.MultilevelOptions{})
	require.NoError(t, err)

	require.Len(t, ml.Components, 2)
	n2 := ml.Components[0]
	assert.Equal(t, int64(200), n2.SubBOMID)
	require.Len(t, n2.Children, 1)
	assert.True(t, decimal.NewFromInt(6).Equal(n2.Children[0].ExtendedQuantity), "2 x 3 = 6")
	assert.Equal(t, 2, n2.Children[0].Level)
	assert.Empty(t, ml.Components[1].Children)
	assert.Equal(t, 2, ml.Depth)
}

func TestExpand_PhantomSoloConOpcion(t *testing.T) {
	tree := &fakeTree{}
	tree.add(1, 2, 1, entity.ComponentTypePhantom)
	tree.add(2, 3, 1, entity.ComponentTypeNormal)

	ml, err := bom.Expand(context.Background(), tree, tree.isDisabled, root(1), bom.MultilevelOptions{})
	require.NoError(t, err)
	assert.Empty(t, ml.Components[0].Children, "sin ExpandPhantoms el phantom es hoja")

	ml, err = bom.Expand(context.Background(), tree, tree.isDisabled, root(1), bom.MultilevelOptions{ExpandPhantoms: true})
	require.NoError(t, err)
	assert.Len(t, ml.Components[0].Children, 1)
}

func TestExpand_CicloMarcado(t *testing.T) {
	tree := &fakeTree{}
	tree.add(1, 2, 1, entity.ComponentTypeNormal)
	tree.add(2, 1, 1, entity.ComponentTypeNormal)

	ml, err := bom.Expand(context.Background(), tree, tree.isDisabled, root(1), bom.MultilevelOptions{})
	require.NoError(t, err)
	back := ml.Components[0].Children[0]
	assert.True(t, back.Cyclic)
	assert.Empty(t, back.Children)
}

func TestExpand_MaxLevelTrunca(t *testing.T) {
	tree := &fakeTree{}
	tree.add(1, 2, 1, entity.ComponentTypeNormal)
	tree.add(2, 3, 1, entity.ComponentTypeNormal)
	tree.add(3, 4, 1, entity.ComponentTypeNormal)

	ml, err := bom.Expand(context.Background(), tree, tree.isDisabled, root(1), bom.MultilevelOptions{MaxLevel: 2})
	require.NoError(t, err)
	lvl2 := ml.Components[0].Children[0]
	assert.True(t, lvl2.Truncated)
	assert.Empty(t, lvl2.Children)
	assert.Equal(t, 2, ml.Depth)
}

func TestExpand_DeshabilitadosYRouting(t *testing.T) {
	tree := &fakeTree{disabled: map[int64]bool{4: true}}
	tree.add(1, 2, 1, entity.ComponentTypeNormal)
	tree.add(1, 4, 1, entity.ComponentTypeNormal)
	tree.add(2, 3, 1, entity.ComponentTypeNormal)

	ml, err := bom.Expand(context.Background(), tree, tree.isDisabled, root(1), bom.MultilevelOptions{IncludeRouting: true})
	require.NoError(t, err)
	require.Len(t, ml.Components, 1, "el artículo deshabilitado se omite")
	assert.Len(t, ml.Routing, 1)
	assert.Len(t, ml.Components[0].Routing, 1)

	ml, err = bom.Expand(context.Background(), tree, tree.isDisabled, root(1), bom.MultilevelOptions{IncludeDisabled: true})
	require.NoError(t, err)
	assert.Len(t, ml.Components, 2)
}
