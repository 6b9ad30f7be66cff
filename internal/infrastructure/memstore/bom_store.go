package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.BOMStore = bomStore{}

type bomStore struct{ v *view }

func (r bomStore) Mutate(ctx context.Context, companyID int, userID string, m bom.Mutation) (bom.Ack, error) {
	if err := m.Validate(); err != nil {
		return bom.Ack{}, err
	}
	var ack bom.Ack
	err := r.v.write(ctx, "Mutate", func(st *state) error {
		var err error
		ack, err = r.apply(st, companyID, userID, m)
		return err
	})
	if err != nil {
		return bom.Ack{}, err
	}
	return ack, nil
}

func (r bomStore) apply(st *state, companyID int, userID string, m bom.Mutation) (bom.Ack, error) {
	now := r.v.store.now()
	switch c := m.(type) {
	case bom.AddBOM:
		item, err := st.item(companyID, c.TargetItemID)
		if err != nil {
			return bom.Ack{}, err
		}
		h, err := st.newHeader(companyID, item, c.Header, userID, now)
		if err != nil {
			return bom.Ack{}, err
		}
		return bom.Acknowledged(bom.AckValue{BOMID: h.ID, Msg: "distinta creada"}), nil

	case bom.UpdateBOM:
		h, err := st.header(companyID, c.BOMID)
		if err != nil {
			return bom.Ack{}, err
		}
		applyHeader(&h, c.Header)
		h.UpdatedAt = now
		st.boms[h.ID] = h
		return bom.Acknowledged(bom.AckValue{BOMID: h.ID, Msg: "distinta actualizada"}), nil

	case bom.CopyBOM:
		src, err := st.header(companyID, c.SourceBOMID)
		if err != nil {
			return bom.Ack{}, err
		}
		item, err := st.item(companyID, c.TargetItemID)
		if err != nil {
			return bom.Ack{}, err
		}
		hdr := c.Header
		if hdr.UoM == "" {
			hdr.UoM = src.UoM
		}
		if bom.AmountOr(hdr.LotSize, decimal.Zero).IsZero() {
			hdr.LotSize = bom.Amount(src.LotSize)
		}
		h, err := st.newHeader(companyID, item, hdr, userID, now)
		if err != nil {
			return bom.Ack{}, err
		}
		if c.CopyComponents {
			if err := st.copyComponents(src, h); err != nil {
				return bom.Ack{}, err
			}
		}
		if c.CopyRouting {
			for _, rt := range st.routingOf(companyID, src.ID) {
				rt.ID = st.id()
				rt.BOMID = h.ID
				st.routing[rt.ID] = rt
			}
		}
		st.rollUp(companyID, h.ID, now)
		return bom.Acknowledged(bom.AckValue{BOMID: h.ID, Msg: "distinta copiada"}), nil

	case bom.AddComponent:
		h, err := st.header(companyID, c.BOMID)
		if err != nil {
			return bom.Ack{}, err
		}
		if !c.Component.Resolved() {
			return bom.Ack{}, domain.Invalid("component", "referencia de componente sin resolver")
		}
		comp, err := st.componentItem(companyID, h, c.Component.ItemID)
		if err != nil {
			return bom.Ack{}, err
		}
		line := st.nextLine(companyID, h.ID)
		if c.Line != nil {
			line = *c.Line
			if st.lineTaken(companyID, h.ID, line) {
				return bom.Ack{}, fmt.Errorf("línea %d: %w", line, domain.ErrDuplicate)
			}
		}
		row := entity.BOMComponent{ID: st.id(), CompanyID: companyID, BOMID: h.ID, Line: line, ComponentItemID: comp.ID}
		applyLine(&row, c.Data)
		st.components[row.ID] = row
		st.rollUp(companyID, h.ID, now)
		return bom.Acknowledged(bom.AckValue{BOMID: h.ID, ComponentItemID: comp.ID, Msg: "componente agregado"}), nil

	case bom.UpdateComponent:
		row, err := st.componentByLine(companyID, c.BOMID, c.Line)
		if err != nil {
			return bom.Ack{}, err
		}
		applyLine(&row, c.Data)
		st.components[row.ID] = row
		st.rollUp(companyID, c.BOMID, now)
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, ComponentItemID: row.ComponentItemID, Msg: "componente actualizado"}), nil

	case bom.DeleteComponent:
		row, err := st.componentByLine(companyID, c.BOMID, c.Line)
		if err != nil {
			return bom.Ack{}, err
		}
		delete(st.components, row.ID)
		st.rollUp(companyID, c.BOMID, now)
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, Msg: "componente eliminado"}), nil

	case bom.AddRouting:
		h, err := st.header(companyID, c.BOMID)
		if err != nil {
			return bom.Ack{}, err
		}
		step := st.nextStep(companyID, h.ID)
		if c.Step != nil {
			step = *c.Step
			for _, rt := range st.routingOf(companyID, h.ID) {
				if rt.RtgStep == step {
					return bom.Ack{}, fmt.Errorf("fase %d: %w", step, domain.ErrDuplicate)
				}
			}
		}
		rt := entity.BOMRouting{ID: st.id(), CompanyID: companyID, BOMID: h.ID, RtgStep: step}
		applyRouting(&rt, c.Data)
		st.routing[rt.ID] = rt
		return bom.Acknowledged(bom.AckValue{BOMID: h.ID, Msg: "fase agregada"}), nil

	case bom.UpdateRouting:
		rt, err := st.routingByStep(companyID, c.BOMID, c.Step)
		if err != nil {
			return bom.Ack{}, err
		}
		applyRouting(&rt, c.Data)
		st.routing[rt.ID] = rt
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, Msg: "fase actualizada"}), nil

	case bom.DeleteRouting:
		rt, err := st.routingByStep(companyID, c.BOMID, c.Step)
		if err != nil {
			return bom.Ack{}, err
		}
		delete(st.routing, rt.ID)
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, Msg: "fase eliminada"}), nil

	case bom.ReplaceComponent:
		h, err := st.header(companyID, c.BOMID)
		if err != nil {
			return bom.Ack{}, err
		}
		if !c.Component.Resolved() {
			return bom.Ack{}, domain.Invalid("component", "referencia de componente sin resolver")
		}
		comp, err := st.componentItem(companyID, h, c.Component.ItemID)
		if err != nil {
			return bom.Ack{}, err
		}
		mode := r.v.store.replaceMode()
		row, err := st.componentByLine(companyID, h.ID, c.Line)
		if err != nil {
			// Igual que un UPDATE sin filas: sin error y sin valor.
			return bom.Ambiguous(), nil
		}
		if mode == ReplaceAckLost {
			return bom.Ambiguous(), nil
		}
		row.ComponentItemID = comp.ID
		st.components[row.ID] = row
		st.touch(companyID, h.ID, now)
		if mode == ReplaceAckAmbiguous {
			return bom.Ambiguous(), nil
		}
		return bom.Acknowledged(bom.AckValue{BOMID: h.ID, ComponentItemID: comp.ID, Msg: "componente sustituido"}), nil
	}
	return bom.Ack{}, domain.Invalid("action", fmt.Sprintf("acción %s no soportada por el almacenamiento", m.Action()))
}

func (r bomStore) GetHeader(ctx context.Context, companyID int, bomID int64) (*entity.BOM, error) {
	var out *entity.BOM
	err := r.v.read(func(st *state) error {
		h, err := st.header(companyID, bomID)
		if err != nil {
			return err
		}
		h = st.decorateHeader(h)
		out = &h
		return nil
	})
	return out, err
}

func (r bomStore) LatestBOM(ctx context.Context, companyID int, itemID int64) (*entity.BOM, error) {
	var out *entity.BOM
	err := r.v.read(func(st *state) error {
		if h, ok := st.latest(companyID, itemID); ok {
			h = st.decorateHeader(h)
			out = &h
		}
		return nil
	})
	return out, err
}

func (r bomStore) GetByVersion(ctx context.Context, companyID int, itemID int64, version int) (*entity.BOM, error) {
	var out *entity.BOM
	err := r.v.read(func(st *state) error {
		var found *entity.BOM
		for _, h := range st.boms {
			if h.CompanyID == companyID && h.ItemID == itemID && h.Version == version {
				if found == nil || h.ID > found.ID {
					h := h
					found = &h
				}
			}
		}
		if found == nil {
			return domain.ErrNotFound
		}
		h := st.decorateHeader(*found)
		out = &h
		return nil
	})
	return out, err
}

func (r bomStore) Components(ctx context.Context, companyID int, bomID int64) ([]entity.BOMComponent, error) {
	var out []entity.BOMComponent
	err := r.v.read(func(st *state) error {
		out = st.componentsOf(companyID, bomID)
		for i := range out {
			out[i] = st.decorateComponent(out[i])
		}
		return nil
	})
	return out, err
}

func (r bomStore) Routing(ctx context.Context, companyID int, bomID int64) ([]entity.BOMRouting, error) {
	var out []entity.BOMRouting
	err := r.v.read(func(st *state) error {
		out = st.routingOf(companyID, bomID)
		return nil
	})
	return out, err
}

func (r bomStore) Versions(ctx context.Context, companyID int, itemID int64) ([]entity.BOMVersion, error) {
	var out []entity.BOMVersion
	err := r.v.read(func(st *state) error {
		for _, h := range st.boms {
			if h.CompanyID == companyID && h.ItemID == itemID {
				out = append(out, entity.BOMVersion{BOMID: h.ID, Version: h.Version, Status: h.Status, CreatedAt: h.CreatedAt})
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Version != out[j].Version {
				return out[i].Version < out[j].Version
			}
			return out[i].BOMID < out[j].BOMID
		})
		return nil
	})
	return out, err
}

func (r bomStore) ComponentAtLine(ctx context.Context, companyID int, bomID int64, line int) (*entity.BOMComponent, error) {
	var out *entity.BOMComponent
	err := r.v.read(func(st *state) error {
		row, err := st.componentByLine(companyID, bomID, line)
		if err != nil {
			return nil
		}
		row = st.decorateComponent(row)
		out = &row
		return nil
	})
	return out, err
}

// --- helpers sobre el estado ---

func (st *state) item(companyID int, id int64) (entity.Item, error) {
	it, ok := st.items[id]
	if !ok || it.CompanyID != companyID {
		return entity.Item{}, fmt.Errorf("artículo %d: %w", id, domain.ErrNotFound)
	}
	return it, nil
}

func (st *state) header(companyID int, id int64) (entity.BOM, error) {
	h, ok := st.boms[id]
	if !ok || h.CompanyID != companyID {
		return entity.BOM{}, fmt.Errorf("distinta %d: %w", id, domain.ErrNotFound)
	}
	return h, nil
}

// componentItem valida el artículo componente con las mismas reglas que el trigger SQL.
func (st *state) componentItem(companyID int, h entity.BOM, itemID int64) (entity.Item, error) {
	it, err := st.item(companyID, itemID)
	if err != nil {
		return entity.Item{}, err
	}
	if it.ID == h.ItemID {
		return entity.Item{}, &domain.OperationError{Code: bom.CodeSelfReference, Message: bom.MsgSelfReference}
	}
	if it.Disabled {
		return entity.Item{}, &domain.OperationError{Code: bom.CodeDisabledComponent, Message: bom.MsgDisabledComponent}
	}
	return it, nil
}

func (st *state) latest(companyID int, itemID int64) (entity.BOM, bool) {
	var best entity.BOM
	found := false
	for _, h := range st.boms {
		if h.CompanyID != companyID || h.ItemID != itemID {
			continue
		}
		if !found || h.Version > best.Version || (h.Version == best.Version && h.ID > best.ID) {
			best, found = h, true
		}
	}
	return best, found
}

func (st *state) newHeader(companyID int, item entity.Item, hdr bom.Header, userID string, now time.Time) (entity.BOM, error) {
	version := hdr.Version
	if version <= 0 {
		version = 1
		if last, ok := st.latest(companyID, item.ID); ok {
			version = last.Version + 1
		}
	} else {
		for _, h := range st.boms {
			if h.CompanyID == companyID && h.ItemID == item.ID && h.Version == version {
				return entity.BOM{}, fmt.Errorf("versión %d del artículo %d: %w", version, item.ID, domain.ErrDuplicate)
			}
		}
	}
	h := entity.BOM{
		ID:          st.id(),
		CompanyID:   companyID,
		ItemID:      item.ID,
		Code:        hdr.Code,
		Description: hdr.Description,
		Version:     version,
		UoM:         hdr.UoM,
		Status:      hdr.Status,
		UnitCost:    bom.AmountOr(hdr.UnitCost, decimal.Zero),
		TotalCost:   bom.AmountOr(hdr.TotalCost, decimal.Zero),
		Price:       bom.AmountOr(hdr.Price, decimal.Zero),
		LotSize:     bom.AmountOr(hdr.LotSize, decimal.Zero),
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if h.Code == "" {
		h.Code = "BOM_" + item.Code
	}
	if h.Description == "" {
		h.Description = item.Description
	}
	if h.UoM == "" {
		h.UoM = item.BaseUoM
	}
	if h.Status == "" {
		h.Status = entity.BOMStatusDraft
	}
	st.boms[h.ID] = h
	return h, nil
}

func applyHeader(h *entity.BOM, hdr bom.Header) {
	if hdr.Code != "" {
		h.Code = hdr.Code
	}
	if hdr.Description != "" {
		h.Description = hdr.Description
	}
	if hdr.Version > 0 {
		h.Version = hdr.Version
	}
	if hdr.UoM != "" {
		h.UoM = hdr.UoM
	}
	if hdr.Status != "" {
		h.Status = hdr.Status
	}
	h.UnitCost = bom.AmountOr(hdr.UnitCost, h.UnitCost)
	h.Price = bom.AmountOr(hdr.Price, h.Price)
	h.LotSize = bom.AmountOr(hdr.LotSize, h.LotSize)
	h.TotalCost = bom.AmountOr(hdr.TotalCost, h.TotalCost)
}

// applyLine copia los datos de línea; Quantity cero conserva la cantidad actual y
// TotalCost cero se recalcula como Quantity * UnitCost.
func applyLine(row *entity.BOMComponent, d bom.ComponentLine) {
	if !d.Quantity.IsZero() {
		row.Quantity = d.Quantity
	}
	row.ComponentType = d.ComponentType
	if row.ComponentType == "" {
		row.ComponentType = entity.ComponentTypeNormal
	}
	row.UoM = d.UoM
	row.UnitCost = d.UnitCost
	row.FixedCost = d.FixedCost
	row.TotalCost = d.TotalCost
	if row.TotalCost.IsZero() {
		row.TotalCost = row.Quantity.Mul(row.UnitCost)
	}
	row.Notes = d.Notes
	row.Details = d.Details
	row.ParentComponentID = d.ParentComponentID
}

func applyRouting(rt *entity.BOMRouting, d bom.RoutingData) {
	if strings.TrimSpace(d.Operation) != "" {
		rt.Operation = d.Operation
	}
	rt.WorkCenter = d.WorkCenter
	rt.ProcessingTime = d.ProcessingTime
	rt.SetupTime = d.SetupTime
	rt.Workers = d.Workers
	rt.SetupWorkers = d.SetupWorkers
	rt.Subcontracted = d.Subcontracted
	rt.SupplierCode = d.SupplierCode
	rt.SubcontractCost = d.SubcontractCost
	rt.Notes = d.Notes
}

// copyComponents aplica a cada línea copiada las reglas del trigger SQL.
func (st *state) copyComponents(src, dst entity.BOM) error {
	rows := st.componentsOf(src.CompanyID, src.ID)
	remap := make(map[int64]int64, len(rows))
	for _, row := range rows {
		if _, err := st.componentItem(dst.CompanyID, dst, row.ComponentItemID); err != nil {
			return err
		}
		remap[row.ID] = st.id()
	}
	for _, row := range rows {
		row.ID = remap[row.ID]
		row.BOMID = dst.ID
		row.CompanyID = dst.CompanyID
		if row.ParentComponentID != nil {
			if to, ok := remap[*row.ParentComponentID]; ok {
				row.ParentComponentID = &to
			} else {
				row.ParentComponentID = nil
			}
		}
		st.components[row.ID] = row
	}
	return nil
}

// rollUp recalcula TotalCost de la cabecera como suma de TotalCost + FixedCost de las líneas.
func (st *state) rollUp(companyID int, bomID int64, now time.Time) {
	h, ok := st.boms[bomID]
	if !ok || h.CompanyID != companyID {
		return
	}
	total := decimal.Zero
	for _, row := range st.componentsOf(companyID, bomID) {
		total = total.Add(row.TotalCost).Add(row.FixedCost)
	}
	h.TotalCost = total
	h.UpdatedAt = now
	st.boms[bomID] = h
}

func (st *state) touch(companyID int, bomID int64, now time.Time) {
	if h, ok := st.boms[bomID]; ok && h.CompanyID == companyID {
		h.UpdatedAt = now
		st.boms[bomID] = h
	}
}

func (st *state) componentsOf(companyID int, bomID int64) []entity.BOMComponent {
	var out []entity.BOMComponent
	for _, row := range st.components {
		if row.CompanyID == companyID && row.BOMID == bomID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

func (st *state) routingOf(companyID int, bomID int64) []entity.BOMRouting {
	var out []entity.BOMRouting
	for _, rt := range st.routing {
		if rt.CompanyID == companyID && rt.BOMID == bomID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RtgStep < out[j].RtgStep })
	return out
}

func (st *state) componentByLine(companyID int, bomID int64, line int) (entity.BOMComponent, error) {
	for _, row := range st.components {
		if row.CompanyID == companyID && row.BOMID == bomID && row.Line == line {
			return row, nil
		}
	}
	return entity.BOMComponent{}, fmt.Errorf("línea %d de la distinta %d: %w", line, bomID, domain.ErrNotFound)
}

func (st *state) routingByStep(companyID int, bomID int64, step int) (entity.BOMRouting, error) {
	for _, rt := range st.routing {
		if rt.CompanyID == companyID && rt.BOMID == bomID && rt.RtgStep == step {
			return rt, nil
		}
	}
	return entity.BOMRouting{}, fmt.Errorf("fase %d de la distinta %d: %w", step, bomID, domain.ErrNotFound)
}

func (st *state) lineTaken(companyID int, bomID int64, line int) bool {
	_, err := st.componentByLine(companyID, bomID, line)
	return err == nil
}

func (st *state) nextLine(companyID int, bomID int64) int {
	top := 0
	for _, row := range st.componentsOf(companyID, bomID) {
		if row.Line > top && row.Line < bom.TempOrdinalBase {
			top = row.Line
		}
	}
	return top + 10
}

func (st *state) nextStep(companyID int, bomID int64) int {
	top := 0
	for _, rt := range st.routingOf(companyID, bomID) {
		if rt.RtgStep > top && rt.RtgStep < bom.TempOrdinalBase {
			top = rt.RtgStep
		}
	}
	return top + 10
}

func (st *state) decorateHeader(h entity.BOM) entity.BOM {
	if it, ok := st.items[h.ItemID]; ok {
		h.ItemCode = it.Code
	}
	return h
}

func (st *state) decorateComponent(row entity.BOMComponent) entity.BOMComponent {
	if it, ok := st.items[row.ComponentItemID]; ok {
		row.ComponentCode = it.Code
		row.ComponentDescription = it.Description
	}
	return row
}
