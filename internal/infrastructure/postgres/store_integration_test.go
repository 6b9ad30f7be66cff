package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/internal/infrastructure/redislock"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// testPool abre TEST_DATABASE_URL, recrea los schemas y aplica las migraciones.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP SCHEMA IF EXISTS erp CASCADE; DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	require.NoError(t, err)
	require.NoError(t, ApplyMigrations(ctx, pool, logger.Nop()))
	return pool
}

func pgItem(t *testing.T, pool *pgxpool.Pool, code string, erp bool) int64 {
	t.Helper()
	it := &entity.Item{CompanyID: 1, Code: code, Description: "art " + code, Nature: entity.NatureSemiFinished,
		BaseUoM: "PZ", ERPLinked: erp}
	require.NoError(t, NewItemRepository(pool).Create(context.Background(), it))
	return it.ID
}

func pgService(pool *pgxpool.Pool) *appbom.Service {
	return appbom.NewService(appbom.Deps{
		Tx:     NewTxRunner(pool),
		Repos:  NewRepos(pool),
		ERP:    NewERPReader(pool),
		Locker: redislock.NewLocal(),
	}, appbom.Options{})
}

func TestPostgres_FlujoDistinta(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	svc := pgService(pool)

	parent := pgItem(t, pool, "P1", false)
	a, b, c := pgItem(t, pool, "A", false), pgItem(t, pool, "B", false), pgItem(t, pool, "C", false)

	res, err := svc.Mutate(ctx, 1, "u", bom.AddBOM{TargetItemID: parent})
	require.NoError(t, err)
	bomID := res.BOMID

	for _, id := range []int64{a, b, c} {
		_, err := svc.Mutate(ctx, 1, "u", bom.AddComponent{BOMID: bomID, Component: bom.ComponentRef{ItemID: id},
			Data: bom.ComponentLine{Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(5)}})
		require.NoError(t, err)
	}

	store := NewBOMStore(pool)
	h, err := store.GetHeader(ctx, 1, bomID)
	require.NoError(t, err)
	assert.Equal(t, "BOM_P1", h.Code)
	assert.Equal(t, 1, h.Version)
	assert.Equal(t, entity.BOMStatusDraft, h.Status)
	assert.True(t, decimal.NewFromInt(30).Equal(h.TotalCost), "3 x 2 x 5")

	_, err = svc.Mutate(ctx, 1, "u", bom.UpdateBOM{BOMID: bomID, Header: bom.Header{
		LotSize: bom.Amount(decimal.NewFromInt(50)), Price: bom.Amount(decimal.NewFromInt(99))}})
	require.NoError(t, err)
	_, err = svc.Mutate(ctx, 1, "u", bom.UpdateBOM{BOMID: bomID, Header: bom.Header{Status: "in_production"}})
	require.NoError(t, err)
	h, err = store.GetHeader(ctx, 1, bomID)
	require.NoError(t, err)
	assert.Equal(t, "in_production", h.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(h.LotSize), "UPDATE de estado conserva el lote")
	assert.True(t, decimal.NewFromInt(99).Equal(h.Price), "UPDATE de estado conserva el precio")
	assert.True(t, decimal.NewFromInt(30).Equal(h.TotalCost))

	_, err = svc.Reorderer().ReorderComponents(ctx, 1, "u", bomID, []bom.LineMove{
		{Current: 10, Desired: 30}, {Current: 20, Desired: 10}, {Current: 30, Desired: 20},
	})
	require.NoError(t, err)
	comps, err := store.Components(ctx, 1, bomID)
	require.NoError(t, err)
	require.Len(t, comps, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{comps[0].ComponentCode, comps[1].ComponentCode, comps[2].ComponentCode})

	_, err = svc.Mutate(ctx, 1, "u", bom.AddComponent{BOMID: bomID, Component: bom.ComponentRef{ItemID: parent},
		Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)}})
	opErr, ok := domain.AsOperationError(err)
	require.True(t, ok, "el trigger rechaza el autorreferente: %v", err)
	assert.Equal(t, bom.CodeSelfReference, opErr.Code)

	line := 10
	_, err = svc.Mutate(ctx, 1, "u", bom.AddComponent{BOMID: bomID, Line: &line, Component: bom.ComponentRef{ItemID: a},
		Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)}})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = svc.Mutate(ctx, 1, "u", bom.DeleteComponent{BOMID: bomID, Line: 99})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rr, err := svc.Composer().ReplaceComponent(ctx, 1, "u", bom.ReplaceComponent{BOMID: bomID, Line: 10, Component: bom.ComponentRef{ItemID: a}})
	require.NoError(t, err)
	assert.Equal(t, a, rr.ComponentItemID)
	assert.False(t, rr.VerifiedByReread, "UPDATE ... RETURNING da acuse explícito")

	cp, err := svc.Mutate(ctx, 1, "u", bom.CopyBOM{TargetItemID: b, SourceBOMID: bomID, CopyComponents: true})
	opErr, ok = domain.AsOperationError(err)
	require.True(t, ok, "B es componente de la distinta origen: %v", err)
	assert.Equal(t, bom.CodeSelfReference, opErr.Code)
	assert.Nil(t, cp)

	other := pgItem(t, pool, "P2", false)
	cp, err = svc.Mutate(ctx, 1, "u", bom.CopyBOM{TargetItemID: other, SourceBOMID: bomID, CopyComponents: true})
	require.NoError(t, err)
	copied, err := store.Components(ctx, 1, cp.BOMID)
	require.NoError(t, err)
	assert.Len(t, copied, 3)
}

func TestPostgres_Articulos(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	items := NewItemRepository(pool)

	tmp := pgItem(t, pool, "X-1", false)
	erp := pgItem(t, pool, "x-1", true)
	found, err := items.FindByCode(ctx, 1, "X-1")
	require.NoError(t, err)
	assert.Equal(t, erp, found.ID, "prefiere el espejo ERP")
	assert.NotEqual(t, tmp, found.ID)

	id, err := items.UpsertFromERP(ctx, &entity.Item{CompanyID: 1, Code: "X-1", Description: "actualizado",
		Nature: entity.NaturePurchased, BaseUoM: "KG"})
	require.NoError(t, err)
	assert.Equal(t, erp, id)

	for want := 1; want <= 2; want++ {
		seq, err := items.NextTemporarySeq(ctx, 1, "TMP-")
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}

	require.NoError(t, items.LinkProject(ctx, 1, 7, tmp))
	require.NoError(t, items.LinkProject(ctx, 1, 7, tmp), "idempotente")
	u, err := items.Usage(ctx, 1, tmp)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ProjectCount)

	_, err = items.GetByID(ctx, 2, tmp)
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra empresa")
}

func TestPostgres_FalloParcialNoEnvenenaLaTx(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	parent := pgItem(t, pool, "P", false)
	comp := pgItem(t, pool, "C", false)

	err := NewTxRunner(pool).RunBOM(ctx, func(repos repository.TxRepos) error {
		ack, err := repos.BOMs.Mutate(ctx, 1, "u", bom.AddBOM{TargetItemID: parent})
		require.NoError(t, err)
		v, _ := ack.Value()

		_, err = repos.BOMs.Mutate(ctx, 1, "u", bom.AddComponent{BOMID: v.BOMID, Component: bom.ComponentRef{ItemID: parent},
			Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)}})
		require.Error(t, err)

		_, err = repos.BOMs.Mutate(ctx, 1, "u", bom.AddComponent{BOMID: v.BOMID, Component: bom.ComponentRef{ItemID: comp},
			Data: bom.ComponentLine{Quantity: decimal.NewFromInt(1)}})
		return err
	})
	require.NoError(t, err)

	latest, err := NewBOMStore(pool).LatestBOM(ctx, 1, parent)
	require.NoError(t, err)
	require.NotNil(t, latest)
	comps, err := NewBOMStore(pool).Components(ctx, 1, latest.ID)
	require.NoError(t, err)
	assert.Len(t, comps, 1)
}
