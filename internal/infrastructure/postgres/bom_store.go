package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.BOMStore = (*BOMStore)(nil)

// BOMStore implementación de BOMStore sobre PostgreSQL (usable con pool o tx).
// Cada Mutate corre en su propio savepoint; las reglas del componente las aplica el
// trigger bom_component_check.
type BOMStore struct {
	q Querier
}

// NewBOMStore construye el adaptador. Pasar pool o tx (Querier).
func NewBOMStore(q Querier) *BOMStore {
	return &BOMStore{q: q}
}

const headerColumns = `b.id, b.company_id, b.item_id, i.code, b.code, b.description, b.version, b.uom, b.status,
	b.unit_cost, b.total_cost, b.price, b.lot_size, b.created_by, b.created_at, b.updated_at`

const componentColumns = `c.id, c.company_id, c.bom_id, c.line, c.component_item_id, i.code, i.description,
	c.component_type, c.quantity, c.uom, c.unit_cost, c.total_cost, c.fixed_cost, c.notes, c.details,
	c.parent_component_id`

const routingColumns = `id, company_id, bom_id, rtg_step, operation, work_center, processing_time, setup_time,
	workers, setup_workers, subcontracted, supplier_code, subcontract_cost, notes`

func scanHeader(row pgx.Row) (*entity.BOM, error) {
	var h entity.BOM
	err := row.Scan(&h.ID, &h.CompanyID, &h.ItemID, &h.ItemCode, &h.Code, &h.Description, &h.Version, &h.UoM,
		&h.Status, &h.UnitCost, &h.TotalCost, &h.Price, &h.LotSize, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanComponent(row pgx.Row) (entity.BOMComponent, error) {
	var c entity.BOMComponent
	err := row.Scan(&c.ID, &c.CompanyID, &c.BOMID, &c.Line, &c.ComponentItemID, &c.ComponentCode,
		&c.ComponentDescription, &c.ComponentType, &c.Quantity, &c.UoM, &c.UnitCost, &c.TotalCost, &c.FixedCost,
		&c.Notes, &c.Details, &c.ParentComponentID)
	return c, err
}

func scanRouting(row pgx.Row) (entity.BOMRouting, error) {
	var rt entity.BOMRouting
	err := row.Scan(&rt.ID, &rt.CompanyID, &rt.BOMID, &rt.RtgStep, &rt.Operation, &rt.WorkCenter,
		&rt.ProcessingTime, &rt.SetupTime, &rt.Workers, &rt.SetupWorkers, &rt.Subcontracted, &rt.SupplierCode,
		&rt.SubcontractCost, &rt.Notes)
	return rt, err
}

// Mutate aplica un comando ya resuelto. REPLACE sobre una línea inexistente devuelve un
// acuse ambiguo sin error (UPDATE sin filas).
func (r *BOMStore) Mutate(ctx context.Context, companyID int, userID string, m bom.Mutation) (bom.Ack, error) {
	if err := m.Validate(); err != nil {
		return bom.Ack{}, err
	}
	var ack bom.Ack
	err := atomic(ctx, r.q, func(q Querier) error {
		var err error
		ack, err = mutate(ctx, q, companyID, userID, m)
		return err
	})
	if err != nil {
		return bom.Ack{}, err
	}
	return ack, nil
}

func mutate(ctx context.Context, q Querier, companyID int, userID string, m bom.Mutation) (bom.Ack, error) {
	switch c := m.(type) {
	case bom.AddBOM:
		id, err := insertHeader(ctx, q, companyID, c.TargetItemID, c.Header, userID)
		if err != nil {
			return bom.Ack{}, err
		}
		return bom.Acknowledged(bom.AckValue{BOMID: id, Msg: "distinta creada"}), nil

	case bom.UpdateBOM:
		h := c.Header
		query := `
			UPDATE boms SET
				code = COALESCE(NULLIF($3::text, ''), code),
				description = COALESCE(NULLIF($4::text, ''), description),
				version = CASE WHEN $5::int > 0 THEN $5 ELSE version END,
				uom = COALESCE(NULLIF($6::text, ''), uom),
				status = COALESCE(NULLIF($7::text, ''), status),
				unit_cost = COALESCE($8::numeric, unit_cost),
				price = COALESCE($9::numeric, price),
				lot_size = COALESCE($10::numeric, lot_size),
				total_cost = COALESCE($11::numeric, total_cost),
				updated_at = NOW()
			WHERE company_id = $1 AND id = $2
			RETURNING id`
		var id int64
		err := q.QueryRow(ctx, query, companyID, c.BOMID, h.Code, h.Description, h.Version, h.UoM, h.Status,
			h.UnitCost, h.Price, h.LotSize, h.TotalCost).Scan(&id)
		if err != nil {
			return bom.Ack{}, mapError(err, fmt.Sprintf("distinta %d", c.BOMID))
		}
		return bom.Acknowledged(bom.AckValue{BOMID: id, Msg: "distinta actualizada"}), nil

	case bom.CopyBOM:
		src, err := getHeader(ctx, q, companyID, c.SourceBOMID)
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
		id, err := insertHeader(ctx, q, companyID, c.TargetItemID, hdr, userID)
		if err != nil {
			return bom.Ack{}, err
		}
		if c.CopyComponents {
			if err := copyComponents(ctx, q, companyID, src.ID, id); err != nil {
				return bom.Ack{}, err
			}
		}
		if c.CopyRouting {
			_, err := q.Exec(ctx, `
				INSERT INTO bom_routing (company_id, bom_id, rtg_step, operation, work_center, processing_time,
					setup_time, workers, setup_workers, subcontracted, supplier_code, subcontract_cost, notes)
				SELECT company_id, $3, rtg_step, operation, work_center, processing_time,
					setup_time, workers, setup_workers, subcontracted, supplier_code, subcontract_cost, notes
				FROM bom_routing WHERE company_id = $1 AND bom_id = $2`, companyID, src.ID, id)
			if err != nil {
				return bom.Ack{}, mapError(err, "copy routing")
			}
		}
		if err := rollUp(ctx, q, companyID, id); err != nil {
			return bom.Ack{}, err
		}
		return bom.Acknowledged(bom.AckValue{BOMID: id, Msg: "distinta copiada"}), nil

	case bom.AddComponent:
		if !c.Component.Resolved() {
			return bom.Ack{}, domain.Invalid("component", "referencia de componente sin resolver")
		}
		if _, err := headerItem(ctx, q, companyID, c.BOMID); err != nil {
			return bom.Ack{}, err
		}
		if err := itemExists(ctx, q, companyID, c.Component.ItemID); err != nil {
			return bom.Ack{}, err
		}
		var line int
		if c.Line != nil {
			line = *c.Line
		} else {
			err := q.QueryRow(ctx, `
				SELECT COALESCE(MAX(line), 0) + 10 FROM bom_components
				WHERE company_id = $1 AND bom_id = $2 AND line < $3`, companyID, c.BOMID, bom.TempOrdinalBase).Scan(&line)
			if err != nil {
				return bom.Ack{}, mapError(err, "next line")
			}
		}
		d := c.Data
		_, err := q.Exec(ctx, `
			INSERT INTO bom_components (company_id, bom_id, line, component_item_id, component_type, quantity, uom,
				unit_cost, total_cost, fixed_cost, notes, details, parent_component_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			companyID, c.BOMID, line, c.Component.ItemID, componentType(d.ComponentType), d.Quantity, d.UoM,
			d.UnitCost, lineTotal(d, d.Quantity), d.FixedCost, d.Notes, d.Details, d.ParentComponentID)
		if err != nil {
			return bom.Ack{}, mapError(err, fmt.Sprintf("línea %d", line))
		}
		if err := rollUp(ctx, q, companyID, c.BOMID); err != nil {
			return bom.Ack{}, err
		}
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, ComponentItemID: c.Component.ItemID, Msg: "componente agregado"}), nil

	case bom.UpdateComponent:
		d := c.Data
		query := `
			UPDATE bom_components SET
				quantity = CASE WHEN $4::numeric = 0 THEN quantity ELSE $4 END,
				component_type = $5, uom = $6, unit_cost = $7, fixed_cost = $8,
				total_cost = CASE WHEN $9::numeric <> 0 THEN $9
					ELSE (CASE WHEN $4::numeric = 0 THEN quantity ELSE $4 END) * $7 END,
				notes = $10, details = $11, parent_component_id = $12
			WHERE company_id = $1 AND bom_id = $2 AND line = $3
			RETURNING component_item_id`
		var itemID int64
		err := q.QueryRow(ctx, query, companyID, c.BOMID, c.Line, d.Quantity, componentType(d.ComponentType), d.UoM,
			d.UnitCost, d.FixedCost, d.TotalCost, d.Notes, d.Details, d.ParentComponentID).Scan(&itemID)
		if err != nil {
			return bom.Ack{}, mapError(err, fmt.Sprintf("línea %d de la distinta %d", c.Line, c.BOMID))
		}
		if err := rollUp(ctx, q, companyID, c.BOMID); err != nil {
			return bom.Ack{}, err
		}
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, ComponentItemID: itemID, Msg: "componente actualizado"}), nil

	case bom.DeleteComponent:
		tag, err := q.Exec(ctx, `DELETE FROM bom_components WHERE company_id = $1 AND bom_id = $2 AND line = $3`,
			companyID, c.BOMID, c.Line)
		if err != nil {
			return bom.Ack{}, mapError(err, "delete component")
		}
		if tag.RowsAffected() == 0 {
			return bom.Ack{}, fmt.Errorf("línea %d de la distinta %d: %w", c.Line, c.BOMID, domain.ErrNotFound)
		}
		if err := rollUp(ctx, q, companyID, c.BOMID); err != nil {
			return bom.Ack{}, err
		}
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, Msg: "componente eliminado"}), nil

	case bom.AddRouting:
		if _, err := headerItem(ctx, q, companyID, c.BOMID); err != nil {
			return bom.Ack{}, err
		}
		var step int
		if c.Step != nil {
			step = *c.Step
		} else {
			err := q.QueryRow(ctx, `
				SELECT COALESCE(MAX(rtg_step), 0) + 10 FROM bom_routing
				WHERE company_id = $1 AND bom_id = $2 AND rtg_step < $3`, companyID, c.BOMID, bom.TempOrdinalBase).Scan(&step)
			if err != nil {
				return bom.Ack{}, mapError(err, "next step")
			}
		}
		d := c.Data
		_, err := q.Exec(ctx, `
			INSERT INTO bom_routing (company_id, bom_id, rtg_step, operation, work_center, processing_time, setup_time,
				workers, setup_workers, subcontracted, supplier_code, subcontract_cost, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			companyID, c.BOMID, step, d.Operation, d.WorkCenter, d.ProcessingTime, d.SetupTime, d.Workers,
			d.SetupWorkers, d.Subcontracted, d.SupplierCode, d.SubcontractCost, d.Notes)
		if err != nil {
			return bom.Ack{}, mapError(err, fmt.Sprintf("fase %d", step))
		}
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, Msg: "fase agregada"}), nil

	case bom.UpdateRouting:
		d := c.Data
		tag, err := q.Exec(ctx, `
			UPDATE bom_routing SET
				operation = COALESCE(NULLIF($4::text, ''), operation),
				work_center = $5, processing_time = $6, setup_time = $7, workers = $8, setup_workers = $9,
				subcontracted = $10, supplier_code = $11, subcontract_cost = $12, notes = $13
			WHERE company_id = $1 AND bom_id = $2 AND rtg_step = $3`,
			companyID, c.BOMID, c.Step, d.Operation, d.WorkCenter, d.ProcessingTime, d.SetupTime, d.Workers,
			d.SetupWorkers, d.Subcontracted, d.SupplierCode, d.SubcontractCost, d.Notes)
		if err != nil {
			return bom.Ack{}, mapError(err, "update routing")
		}
		if tag.RowsAffected() == 0 {
			return bom.Ack{}, fmt.Errorf("fase %d de la distinta %d: %w", c.Step, c.BOMID, domain.ErrNotFound)
		}
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, Msg: "fase actualizada"}), nil

	case bom.DeleteRouting:
		tag, err := q.Exec(ctx, `DELETE FROM bom_routing WHERE company_id = $1 AND bom_id = $2 AND rtg_step = $3`,
			companyID, c.BOMID, c.Step)
		if err != nil {
			return bom.Ack{}, mapError(err, "delete routing")
		}
		if tag.RowsAffected() == 0 {
			return bom.Ack{}, fmt.Errorf("fase %d de la distinta %d: %w", c.Step, c.BOMID, domain.ErrNotFound)
		}
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, Msg: "fase eliminada"}), nil

	case bom.ReplaceComponent:
		if !c.Component.Resolved() {
			return bom.Ack{}, domain.Invalid("component", "referencia de componente sin resolver")
		}
		if _, err := headerItem(ctx, q, companyID, c.BOMID); err != nil {
			return bom.Ack{}, err
		}
		if err := itemExists(ctx, q, companyID, c.Component.ItemID); err != nil {
			return bom.Ack{}, err
		}
		var itemID int64
		err := q.QueryRow(ctx, `
			UPDATE bom_components SET component_item_id = $4
			WHERE company_id = $1 AND bom_id = $2 AND line = $3
			RETURNING component_item_id`, companyID, c.BOMID, c.Line, c.Component.ItemID).Scan(&itemID)
		if errors.Is(err, pgx.ErrNoRows) {
			return bom.Ambiguous(), nil
		}
		if err != nil {
			return bom.Ack{}, mapError(err, fmt.Sprintf("línea %d", c.Line))
		}
		if _, err := q.Exec(ctx, `UPDATE boms SET updated_at = NOW() WHERE company_id = $1 AND id = $2`, companyID, c.BOMID); err != nil {
			return bom.Ack{}, mapError(err, "touch bom")
		}
		return bom.Acknowledged(bom.AckValue{BOMID: c.BOMID, ComponentItemID: itemID, Msg: "componente sustituido"}), nil
	}
	return bom.Ack{}, domain.Invalid("action", fmt.Sprintf("acción %s no soportada por el almacenamiento", m.Action()))
}

// insertHeader crea la cabecera con los valores por defecto tomados del artículo.
// Version 0 = última versión del artículo + 1.
func insertHeader(ctx context.Context, q Querier, companyID int, itemID int64, h bom.Header, userID string) (int64, error) {
	status := h.Status
	if status == "" {
		status = entity.BOMStatusDraft
	}
	query := `
		INSERT INTO boms (company_id, item_id, code, description, version, uom, status,
			unit_cost, total_cost, price, lot_size, created_by)
		SELECT i.company_id, i.id,
			COALESCE(NULLIF($3::text, ''), 'BOM_' || i.code),
			COALESCE(NULLIF($4::text, ''), i.description),
			CASE WHEN $5::int > 0 THEN $5 ELSE (
				SELECT COALESCE(MAX(b.version), 0) + 1 FROM boms b
				WHERE b.company_id = i.company_id AND b.item_id = i.id) END,
			COALESCE(NULLIF($6::text, ''), i.base_uom),
			$7, $8, $9, $10, $11, $12
		FROM items i
		WHERE i.company_id = $1 AND i.id = $2
		RETURNING id`
	var id int64
	err := q.QueryRow(ctx, query, companyID, itemID, h.Code, h.Description, h.Version, h.UoM, status,
		bom.AmountOr(h.UnitCost, decimal.Zero), bom.AmountOr(h.TotalCost, decimal.Zero),
		bom.AmountOr(h.Price, decimal.Zero), bom.AmountOr(h.LotSize, decimal.Zero), userID).Scan(&id)
	if err != nil {
		return 0, mapError(err, fmt.Sprintf("artículo %d", itemID))
	}
	return id, nil
}

// copyComponents copia las líneas de src a dst conservando la jerarquía padre/hijo.
func copyComponents(ctx context.Context, q Querier, companyID int, src, dst int64) error {
	rows, err := listComponents(ctx, q, companyID, src)
	if err != nil {
		return err
	}
	remap := make(map[int64]int64, len(rows))
	for _, row := range rows {
		var id int64
		err := q.QueryRow(ctx, `
			INSERT INTO bom_components (company_id, bom_id, line, component_item_id, component_type, quantity, uom,
				unit_cost, total_cost, fixed_cost, notes, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			companyID, dst, row.Line, row.ComponentItemID, row.ComponentType, row.Quantity, row.UoM,
			row.UnitCost, row.TotalCost, row.FixedCost, row.Notes, row.Details).Scan(&id)
		if err != nil {
			return mapError(err, fmt.Sprintf("copia línea %d", row.Line))
		}
		remap[row.ID] = id
	}
	for _, row := range rows {
		if row.ParentComponentID == nil {
			continue
		}
		to, ok := remap[*row.ParentComponentID]
		if !ok {
			continue
		}
		if _, err := q.Exec(ctx, `UPDATE bom_components SET parent_component_id = $2 WHERE id = $1`, remap[row.ID], to); err != nil {
			return mapError(err, "copia jerarquía")
		}
	}
	return nil
}

// rollUp recalcula total_cost de la cabecera como suma de total_cost + fixed_cost de las líneas.
func rollUp(ctx context.Context, q Querier, companyID int, bomID int64) error {
	_, err := q.Exec(ctx, `
		UPDATE boms b SET
			total_cost = COALESCE((
				SELECT SUM(c.total_cost + c.fixed_cost) FROM bom_components c
				WHERE c.company_id = b.company_id AND c.bom_id = b.id), 0),
			updated_at = NOW()
		WHERE b.company_id = $1 AND b.id = $2`, companyID, bomID)
	return mapError(err, "roll-up")
}

func headerItem(ctx context.Context, q Querier, companyID int, bomID int64) (int64, error) {
	var itemID int64
	err := q.QueryRow(ctx, `SELECT item_id FROM boms WHERE company_id = $1 AND id = $2`, companyID, bomID).Scan(&itemID)
	if err != nil {
		return 0, mapError(err, fmt.Sprintf("distinta %d", bomID))
	}
	return itemID, nil
}

// itemExists acota el componente a la empresa; la FK sola no lo hace.
func itemExists(ctx context.Context, q Querier, companyID int, itemID int64) error {
	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM items WHERE company_id = $1 AND id = $2`, companyID, itemID).Scan(&id)
	return mapError(err, fmt.Sprintf("artículo %d", itemID))
}

func componentType(t string) string {
	if t == "" {
		return entity.ComponentTypeNormal
	}
	return t
}

// lineTotal TotalCost cero = cantidad * costo unitario.
func lineTotal(d bom.ComponentLine, qty decimal.Decimal) decimal.Decimal {
	if !d.TotalCost.IsZero() {
		return d.TotalCost
	}
	return qty.Mul(d.UnitCost)
}

func getHeader(ctx context.Context, q Querier, companyID int, bomID int64) (*entity.BOM, error) {
	h, err := scanHeader(q.QueryRow(ctx, `SELECT `+headerColumns+`
		FROM boms b JOIN items i ON i.id = b.item_id
		WHERE b.company_id = $1 AND b.id = $2`, companyID, bomID))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("distinta %d", bomID))
	}
	return h, nil
}

func listComponents(ctx context.Context, q Querier, companyID int, bomID int64) ([]entity.BOMComponent, error) {
	rows, err := q.Query(ctx, `SELECT `+componentColumns+`
		FROM bom_components c JOIN items i ON i.id = c.component_item_id
		WHERE c.company_id = $1 AND c.bom_id = $2
		ORDER BY c.line`, companyID, bomID)
	if err != nil {
		return nil, mapError(err, "list components")
	}
	defer rows.Close()
	var out []entity.BOMComponent
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetHeader devuelve ErrNotFound si la distinta no existe en la empresa.
func (r *BOMStore) GetHeader(ctx context.Context, companyID int, bomID int64) (*entity.BOM, error) {
	return getHeader(ctx, r.q, companyID, bomID)
}

// LatestBOM devuelve nil, nil si el artículo no tiene distinta.
func (r *BOMStore) LatestBOM(ctx context.Context, companyID int, itemID int64) (*entity.BOM, error) {
	h, err := scanHeader(r.q.QueryRow(ctx, `SELECT `+headerColumns+`
		FROM boms b JOIN items i ON i.id = b.item_id
		WHERE b.company_id = $1 AND b.item_id = $2
		ORDER BY b.version DESC, b.id DESC
		LIMIT 1`, companyID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("última distinta del artículo %d", itemID))
	}
	return h, nil
}

func (r *BOMStore) GetByVersion(ctx context.Context, companyID int, itemID int64, version int) (*entity.BOM, error) {
	h, err := scanHeader(r.q.QueryRow(ctx, `SELECT `+headerColumns+`
		FROM boms b JOIN items i ON i.id = b.item_id
		WHERE b.company_id = $1 AND b.item_id = $2 AND b.version = $3
		ORDER BY b.id DESC
		LIMIT 1`, companyID, itemID, version))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("versión %d del artículo %d", version, itemID))
	}
	return h, nil
}

func (r *BOMStore) Components(ctx context.Context, companyID int, bomID int64) ([]entity.BOMComponent, error) {
	return listComponents(ctx, r.q, companyID, bomID)
}

func (r *BOMStore) Routing(ctx context.Context, companyID int, bomID int64) ([]entity.BOMRouting, error) {
	rows, err := r.q.Query(ctx, `SELECT `+routingColumns+` FROM bom_routing
		WHERE company_id = $1 AND bom_id = $2 ORDER BY rtg_step`, companyID, bomID)
	if err != nil {
		return nil, mapError(err, "list routing")
	}
	defer rows.Close()
	var out []entity.BOMRouting
	for rows.Next() {
		rt, err := scanRouting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routing: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *BOMStore) Versions(ctx context.Context, companyID int, itemID int64) ([]entity.BOMVersion, error) {
	rows, err := r.q.Query(ctx, `SELECT id, version, status, created_at FROM boms
		WHERE company_id = $1 AND item_id = $2 ORDER BY version, id`, companyID, itemID)
	if err != nil {
		return nil, mapError(err, "list versions")
	}
	defer rows.Close()
	var out []entity.BOMVersion
	for rows.Next() {
		var v entity.BOMVersion
		if err := rows.Scan(&v.BOMID, &v.Version, &v.Status, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ComponentAtLine devuelve nil, nil si la línea no existe.
func (r *BOMStore) ComponentAtLine(ctx context.Context, companyID int, bomID int64, line int) (*entity.BOMComponent, error) {
	c, err := scanComponent(r.q.QueryRow(ctx, `SELECT `+componentColumns+`
		FROM bom_components c JOIN items i ON i.id = c.component_item_id
		WHERE c.company_id = $1 AND c.bom_id = $2 AND c.line = $3`, companyID, bomID, line))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("línea %d", line))
	}
	return &c, nil
}
