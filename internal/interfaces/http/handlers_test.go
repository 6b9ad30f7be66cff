package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/application/dto"
	"github.com/jhoicas/bom-api/internal/application/item"
	"github.com/jhoicas/bom-api/internal/application/reference"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/infrastructure/erpxml"
	"github.com/jhoicas/bom-api/internal/infrastructure/memstore"
	"github.com/jhoicas/bom-api/internal/infrastructure/redislock"
	apphttp "github.com/jhoicas/bom-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/bom-api/pkg/jwt"
)

type fakePDF struct{}

func (fakePDF) GenerateBOMPDF(_ context.Context, full *bom.Full) ([]byte, error) {
	return []byte("%PDF-" + full.Header.Code), nil
}

type server struct {
	t     *testing.T
	app   *fiber.App
	store *memstore.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := memstore.New()
	locker := redislock.NewLocal()
	boms := appbom.NewService(appbom.Deps{
		Tx:     store,
		Repos:  store.Repos(),
		ERP:    store,
		Locker: locker,
	}, appbom.Options{})
	repos := store.Repos()
	items := item.NewService(store, repos.Items, store, boms.Composer(), locker, nil, "TMP-", 10)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		BOMs:       boms,
		Items:      items,
		References: reference.NewLinker(repos.References, repos.Items),
		MasterData: store,
		PDF:        fakePDF{},
		XML:        erpxml.NewExporter(),
		JWTSecret:  testJWTSecret,
	})
	return &server{t: t, app: app, store: store}
}

// call envía la petición con el rol indicado y decodifica la respuesta en out (si no es nil).
func (s *server) call(method, path, role string, body any, out any) *http.Response {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenFor(s.t, testCompanyID, role))
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	if out != nil {
		defer resp.Body.Close()
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *server) item(code string) int64 {
	s.t.Helper()
	var out dto.ItemResponse
	resp := s.call(http.MethodPost, "/api/items", pkgjwt.RoleEngineer, dto.CreateItemRequest{
		Code: code, Description: "Artículo " + code, Nature: entity.NatureSemiFinished, BaseUoM: "PZ",
	}, &out)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)
	return out.ID
}

func (s *server) mutate(action string, data map[string]any, out any) *http.Response {
	s.t.Helper()
	return s.call(http.MethodPost, "/api/boms", pkgjwt.RoleEngineer, map[string]any{"action": action, "bomData": data}, out)
}

func (s *server) bomWith(parent int64, comps ...int64) int64 {
	s.t.Helper()
	var res dto.MutationResponse
	resp := s.mutate("ADD", map[string]any{"itemId": parent}, &res)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)
	for _, c := range comps {
		resp := s.mutate("ADD_COMPONENT", map[string]any{
			"id":            res.BOMID,
			"component":     map[string]any{"id": c},
			"componentData": map[string]any{"quantity": 2, "unitCost": 5},
		}, nil)
		require.Equal(s.t, http.StatusOK, resp.StatusCode)
	}
	return res.BOMID
}

func TestBOMs_FlujoCompleto(t *testing.T) {
	s := newServer(t)
	p, a, b := s.item("P"), s.item("A"), s.item("B")

	var added dto.MutationResponse
	resp := s.mutate("add", map[string]any{"itemId": p}, &added)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, dto.Succeeded, added.Success)
	require.Positive(t, added.BOMID)

	for _, c := range []int64{a, b} {
		var res dto.MutationResponse
		resp := s.mutate("ADD_COMPONENT", map[string]any{
			"id":            added.BOMID,
			"component":     map[string]any{"id": c},
			"componentData": map[string]any{"quantity": 2, "unitCost": "5.5"},
		}, &res)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, added.BOMID, res.BOMID)
	}

	var reordered dto.ReorderResponse
	resp = s.mutate("REORDER_COMPONENTS", map[string]any{
		"id":    added.BOMID,
		"lines": []map[string]int{{"current": 10, "desired": 20}, {"current": 20, "desired": 10}},
	}, &reordered)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, reordered.Moved)
	assert.Equal(t, map[int]int{10: 20, 20: 10}, reordered.Final)

	var comps dto.ComponentsResult
	resp = s.call(http.MethodPost, "/api/boms/query", pkgjwt.RoleViewer,
		map[string]any{"action": "GET_BOM_COMPONENTS", "bomData": map[string]any{"id": added.BOMID}}, &comps)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, comps.Components, 2)
	assert.Equal(t, b, comps.Components[0].ComponentItemID)
	assert.Equal(t, 10, comps.Components[0].Line)
	assert.True(t, decimal.NewFromInt(11).Equal(comps.Components[0].TotalCost), "2 x 5.5")

	var full dto.FullResult
	resp = s.call(http.MethodGet, fmt.Sprintf("/api/boms/%d", added.BOMID), pkgjwt.RoleViewer, nil, &full)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "BOM_P", full.BOM.Code)
	assert.Len(t, full.Versions, 1)
	assert.True(t, decimal.NewFromInt(22).Equal(full.BOM.TotalCost))

	var byItem dto.FullResult
	resp = s.call(http.MethodGet, fmt.Sprintf("/api/items/%d/bom", p), pkgjwt.RoleViewer, nil, &byItem)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, added.BOMID, byItem.BOM.ID)

	var tree dto.MultilevelResult
	resp = s.call(http.MethodGet, fmt.Sprintf("/api/boms/%d/multilevel?maxLevel=3", added.BOMID), pkgjwt.RoleViewer, nil, &tree)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, tree.Components, 2)
}

func TestBOMs_ReorderConNombresDelERP(t *testing.T) {
	s := newServer(t)
	p, a, b, c := s.item("P"), s.item("A"), s.item("B"), s.item("C")
	s.store.SeedNextID(42)
	bomID := s.bomWith(p, a, b, c)
	require.Equal(t, int64(42), bomID)

	body := []byte(`{"action":"REORDER_COMPONENTS","bomData":{"id":42,"lines":[` +
		`{"Line":10,"NewOrder":30},{"Line":20,"NewOrder":10},{"Line":30,"NewOrder":20}]}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/boms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenFor(t, testCompanyID, pkgjwt.RoleEngineer))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	var reordered dto.ReorderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reordered))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, reordered.Moved)

	var comps dto.ComponentsResult
	resp = s.call(http.MethodPost, "/api/boms/query", pkgjwt.RoleViewer,
		map[string]any{"action": "GET_BOM_COMPONENTS", "bomData": map[string]any{"id": bomID}}, &comps)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, comps.Components, 3)
	got := map[int]int64{}
	for _, row := range comps.Components {
		got[row.Line] = row.ComponentItemID
	}
	assert.Equal(t, map[int]int64{10: b, 20: c, 30: a}, got)

	for _, op := range []string{"CORTE", "SOLDADURA"} {
		resp := s.mutate("ADD_ROUTING", map[string]any{"id": bomID, "routing": map[string]any{"operation": op}}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	var steps dto.ReorderResponse
	resp = s.mutate("REORDER_ROUTING", map[string]any{
		"id":    bomID,
		"lines": []map[string]int{{"rtgStep": 20, "newOrder": 10}, {"rtgStep": 10, "newOrder": 20}},
	}, &steps)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[int]int{20: 10, 10: 20}, steps.Final)
}

func TestBOMs_Replace(t *testing.T) {
	s := newServer(t)
	p, a, c := s.item("P"), s.item("A"), s.item("C")
	bomID := s.bomWith(p, a)

	var res dto.ReplaceResponse
	resp := s.mutate("REPLACE_COMPONENT", map[string]any{
		"id": bomID, "line": 10, "component": map[string]any{"code": "C"},
	}, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, c, res.ComponentItemID)
	assert.False(t, res.VerifiedByReread)

	s.store.SetReplaceAck(memstore.ReplaceAckLost)
	var failed dto.ErrorResponse
	resp = s.mutate("REPLACE_COMPONENT", map[string]any{
		"id": bomID, "line": 10, "component": map[string]any{"id": a},
	}, &failed)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "VERIFICATION_FAILED", failed.Code)

	s.store.SetReplaceAck(memstore.ReplaceAckExplicit)
	var minted dto.ReplaceResponse
	resp = s.mutate("REPLACE_WITH_NEW_COMPONENT", map[string]any{
		"id": bomID, "line": 10,
		"newComponent": map[string]any{"description": "Nuevo", "nature": entity.NaturePurchased, "baseUom": "PZ"},
	}, &minted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TMP-000001", minted.CreatedComponentCode)
}

func TestBOMs_Errores(t *testing.T) {
	s := newServer(t)
	p, a := s.item("P"), s.item("A")
	bomID := s.bomWith(p, a)

	var opErr dto.OperationErrorResponse
	resp := s.mutate("ADD_COMPONENT", map[string]any{
		"id": bomID, "component": map[string]any{"id": p}, "componentData": map[string]any{"quantity": 1},
	}, &opErr)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, dto.Failed, opErr.Success)
	assert.Equal(t, bom.CodeSelfReference, opErr.Code)
	assert.Equal(t, bom.MsgSelfReference, opErr.Message)

	var vErr dto.ErrorResponse
	resp = s.mutate("EXPLODE", map[string]any{"id": bomID}, &vErr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", vErr.Code)
	assert.Equal(t, "action", vErr.Field)

	resp = s.mutate("DELETE_COMPONENT", map[string]any{"id": bomID}, &vErr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "line", vErr.Field)

	resp = s.mutate("ADD_COMPONENT", map[string]any{
		"id": bomID, "line": 10, "component": map[string]any{"id": a}, "componentData": map[string]any{"quantity": 1},
	}, &vErr)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", vErr.Code)

	resp = s.call(http.MethodGet, "/api/boms/9999", pkgjwt.RoleViewer, nil, &vErr)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.call(http.MethodGet, "/api/boms/abc", pkgjwt.RoleViewer, nil, &vErr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.call(http.MethodPost, "/api/boms", pkgjwt.RoleViewer,
		map[string]any{"action": "ADD", "bomData": map[string]any{"itemId": a}}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "consulta no muta")
}

func TestBOMs_CopiaDesdeArticulo(t *testing.T) {
	s := newServer(t)
	target, source := s.item("T"), s.item("S")

	var res dto.CopyFromItemResponse
	resp := s.call(http.MethodPost, "/api/boms/copy-from-item", pkgjwt.RoleEngineer, dto.CopyFromItemRequest{
		TargetItemID: target, SourceItemID: source, SourceType: appbom.SourceTemporary,
	}, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Failed, res.Success)
	assert.Equal(t, appbom.MsgSourceHasNoBOM, res.Message)

	s.bomWith(source, s.item("X"))
	resp = s.call(http.MethodPost, "/api/boms/copy-from-item", pkgjwt.RoleEngineer, dto.CopyFromItemRequest{
		TargetItemID: target, SourceItemID: source, SourceType: appbom.SourceTemporary,
	}, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Succeeded, res.Success)
	assert.Positive(t, res.BOMID)
}

func TestBOMs_Documentos(t *testing.T) {
	s := newServer(t)
	bomID := s.bomWith(s.item("P"), s.item("A"))

	resp := s.call(http.MethodGet, fmt.Sprintf("/api/boms/%d/pdf", bomID), pkgjwt.RoleViewer, nil, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-BOM_P", string(body))

	resp = s.call(http.MethodGet, fmt.Sprintf("/api/boms/%d/xml", bomID), pkgjwt.RoleViewer, nil, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<BillOfMaterials")
	assert.Contains(t, string(body), "<Component")
}

func TestItems_GuardiaDeDeshabilitacion(t *testing.T) {
	s := newServer(t)
	p, a, free := s.item("P"), s.item("A"), s.item("LIBRE")
	s.bomWith(p, a)

	var chk dto.DisableCheckResponse
	resp := s.call(http.MethodGet, fmt.Sprintf("/api/items/%d/disable-check", a), pkgjwt.RoleViewer, nil, &chk)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Failed, chk.CanDisable)
	assert.Equal(t, 1, chk.BOMUsageCount)
	assert.NotEmpty(t, chk.Reason)

	resp = s.call(http.MethodPost, fmt.Sprintf("/api/items/%d/disable", a), pkgjwt.RoleAdmin, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.call(http.MethodPost, fmt.Sprintf("/api/items/%d/disable", free), pkgjwt.RoleEngineer, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin deshabilita")

	var ok dto.ResultResponse
	resp = s.call(http.MethodPost, fmt.Sprintf("/api/items/%d/disable", free), pkgjwt.RoleAdmin, nil, &ok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Succeeded, ok.Success)

	var got dto.ItemResponse
	s.call(http.MethodGet, fmt.Sprintf("/api/items/%d", free), pkgjwt.RoleViewer, nil, &got)
	assert.True(t, got.Disabled)
}

func TestItems_CRUDYBusqueda(t *testing.T) {
	s := newServer(t)
	id := s.item("K-1")

	desc := "renombrado"
	var upd dto.ItemResponse
	resp := s.call(http.MethodPut, fmt.Sprintf("/api/items/%d", id), pkgjwt.RoleEngineer, dto.UpdateItemRequest{Description: &desc}, &upd)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "renombrado", upd.Description)

	var list dto.ItemListResponse
	resp = s.call(http.MethodGet, "/api/items?code=k-1", pkgjwt.RoleViewer, nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Items, 1)
	assert.Equal(t, id, list.Items[0].ID)

	resp = s.call(http.MethodGet, "/api/items?limit=500", pkgjwt.RoleViewer, nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100, list.Page.Limit)

	var vErr dto.ErrorResponse
	resp = s.call(http.MethodPost, "/api/items", pkgjwt.RoleEngineer, dto.CreateItemRequest{Code: "Z", Description: "z", Nature: "otra"}, &vErr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "nature", vErr.Field)
}

func TestItems_ImportERP(t *testing.T) {
	s := newServer(t)
	s.store.SeedERPItem(entity.ERPItem{CompanyID: testCompanyID, Code: "E-1", Description: "Ensamble", Nature: entity.NatureFinished, BaseUoM: "PZ"})
	s.store.SeedERPItem(entity.ERPItem{CompanyID: testCompanyID, Code: "E-2", Description: "Tornillo", BaseUoM: "PZ"})
	s.store.SeedERPBOM(entity.ERPBOM{CompanyID: testCompanyID, Code: "E-1", Components: []entity.ERPBOMComponent{
		{Line: 10, ComponentCode: "E-2", Quantity: decimal.NewFromInt(4)},
	}})

	var res dto.ImportERPItemResponse
	resp := s.call(http.MethodPost, "/api/items/import-erp", pkgjwt.RoleEngineer, dto.ImportERPItemRequest{
		ProjectID: 7, ERPCode: "e-1", ImportBOM: true,
	}, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Succeeded, res.Success)
	assert.Equal(t, 1, res.Item.ERPLinked)
	assert.Equal(t, 1, res.BOMsImported)

	var vErr dto.ErrorResponse
	resp = s.call(http.MethodPost, "/api/items/import-erp", pkgjwt.RoleEngineer, dto.ImportERPItemRequest{ProjectID: 7, ERPCode: "NO-EXISTE"}, &vErr)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReferences(t *testing.T) {
	s := newServer(t)
	src := s.item("SRC")

	body := func(targetCompany int, target *int64) map[string]any {
		d := map[string]any{"sourceItemId": src, "targetCompanyId": targetCompany, "nature": entity.ReferenceNaturePurchase}
		if target != nil {
			d["targetItemId"] = *target
		}
		return map[string]any{"referenceData": d}
	}

	var vErr dto.ErrorResponse
	resp := s.call(http.MethodPost, "/api/references", pkgjwt.RoleEngineer, body(testCompanyID, nil), &vErr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "misma empresa")

	missing := int64(9999)
	resp = s.call(http.MethodPost, "/api/references", pkgjwt.RoleEngineer, body(2, &missing), &vErr)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var ref dto.ReferenceResponse
	resp = s.call(http.MethodPost, "/api/references", pkgjwt.RoleEngineer, body(2, nil), &ref)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Nil(t, ref.TargetItemID)

	resp = s.call(http.MethodGet, fmt.Sprintf("/api/items/%d/references/target?nature=purchase", src), pkgjwt.RoleViewer, nil, &vErr)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "referencia sin destino")

	var refs []dto.ReferenceResponse
	resp = s.call(http.MethodGet, fmt.Sprintf("/api/items/%d/references", src), pkgjwt.RoleViewer, nil, &refs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, refs, 1)

	var ok dto.ResultResponse
	resp = s.call(http.MethodDelete, fmt.Sprintf("/api/references/%d", ref.ID), pkgjwt.RoleEngineer, nil, &ok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.call(http.MethodDelete, fmt.Sprintf("/api/references/%d", ref.ID), pkgjwt.RoleEngineer, nil, &vErr)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMasterData(t *testing.T) {
	s := newServer(t)
	s.store.SeedMasterData(
		[]entity.WorkCenter{{CompanyID: testCompanyID, Code: "WC1", Description: "Torno", HourlyCost: decimal.NewFromInt(40)}, {CompanyID: 2, Code: "WC9"}},
		nil,
		[]entity.Supplier{{CompanyID: testCompanyID, Code: "SUP1", Description: "Proveedor"}},
		nil,
	)

	var wc dto.ListResponse[dto.WorkCenterResponse]
	resp := s.call(http.MethodGet, "/api/master-data/work-centers", pkgjwt.RoleViewer, nil, &wc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, wc.Items, 1, "solo la empresa del token")
	assert.Equal(t, "WC1", wc.Items[0].Code)

	var units dto.ListResponse[dto.CodedResponse]
	resp = s.call(http.MethodGet, "/api/master-data/units", pkgjwt.RoleViewer, nil, &units)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, units.Items)
}
