package bom_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/infrastructure/memstore"
	"github.com/jhoicas/bom-api/internal/infrastructure/redislock"
)

const (
	company = 1
	user    = "u-1"
)

type recorder struct {
	mu     sync.Mutex
	events []appbom.Event
}

func (r *recorder) Publish(_ context.Context, e appbom.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []appbom.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]appbom.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// typesSince tipos publicados a partir del índice n.
func (r *recorder) typesSince(n int) []appbom.EventType {
	all := r.types()
	if n >= len(all) {
		return nil
	}
	return all[n:]
}

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	locker *redislock.Local
	events *recorder
	svc    *appbom.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{
		ctx:    context.Background(),
		store:  store,
		locker: redislock.NewLocal(),
		events: &recorder{},
	}
	f.svc = appbom.NewService(appbom.Deps{
		Tx:     store,
		Repos:  store.Repos(),
		ERP:    store,
		Locker: f.locker,
		Events: f.events,
	}, appbom.Options{})
	return f
}

func (f *fixture) item(t *testing.T, code string) *entity.Item {
	t.Helper()
	it := &entity.Item{CompanyID: company, Code: code, Description: "Artículo " + code, Nature: entity.NatureSemiFinished, BaseUoM: "PZ"}
	require.NoError(t, f.store.Repos().Items.Create(f.ctx, it))
	return it
}

// bomWith crea una distinta para parent con los componentes dados en las líneas 10, 20, ...
// y cantidades 1, 2, ...
func (f *fixture) bomWith(t *testing.T, parent *entity.Item, comps ...*entity.Item) int64 {
	t.Helper()
	res, err := f.svc.Mutate(f.ctx, company, user, bom.AddBOM{TargetItemID: parent.ID})
	require.NoError(t, err)
	for i, c := range comps {
		_, err := f.svc.Mutate(f.ctx, company, user, bom.AddComponent{
			BOMID:     res.BOMID,
			Component: bom.ComponentRef{ItemID: c.ID},
			Data:      bom.ComponentLine{Quantity: decimal.NewFromInt(int64(i + 1)), UnitCost: decimal.NewFromInt(10)},
		})
		require.NoError(t, err)
	}
	return res.BOMID
}

func (f *fixture) lines(t *testing.T, bomID int64) map[int]int64 {
	t.Helper()
	rows, err := f.store.Repos().BOMs.Components(f.ctx, company, bomID)
	require.NoError(t, err)
	out := make(map[int]int64, len(rows))
	for _, r := range rows {
		out[r.Line] = r.ComponentItemID
	}
	return out
}

func (f *fixture) steps(t *testing.T, bomID int64) []entity.BOMRouting {
	t.Helper()
	rows, err := f.store.Repos().BOMs.Routing(f.ctx, company, bomID)
	require.NoError(t, err)
	return rows
}
