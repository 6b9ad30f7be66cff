package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var (
	_ repository.ERPReader            = (*ERPReader)(nil)
	_ repository.MasterDataRepository = (*ERPReader)(nil)
)

// ERPReader lectura del espejo ERP (schema erp) y de sus datos maestros.
// Los códigos se comparan sin distinguir mayúsculas.
type ERPReader struct {
	pool *pgxpool.Pool
}

// NewERPReader construye el lector con el pool (solo lectura, fuera de transacción).
func NewERPReader(pool *pgxpool.Pool) *ERPReader {
	return &ERPReader{pool: pool}
}

func (r *ERPReader) GetItem(ctx context.Context, companyID int, code string) (*entity.ERPItem, error) {
	var it entity.ERPItem
	err := r.pool.QueryRow(ctx, `
		SELECT company_id, code, description, nature, base_uom FROM erp.items
		WHERE company_id = $1 AND upper(code) = upper(trim($2))`, companyID, code).
		Scan(&it.CompanyID, &it.Code, &it.Description, &it.Nature, &it.BaseUoM)
	if err != nil {
		return nil, mapError(err, "artículo ERP "+code)
	}
	return &it, nil
}

func (r *ERPReader) GetBOM(ctx context.Context, companyID int, code string) (*entity.ERPBOM, error) {
	var b entity.ERPBOM
	err := r.pool.QueryRow(ctx, `
		SELECT company_id, code, description, uom FROM erp.boms
		WHERE company_id = $1 AND upper(code) = upper(trim($2))`, companyID, code).
		Scan(&b.CompanyID, &b.Code, &b.Description, &b.UoM)
	if err != nil {
		return nil, mapError(err, "distinta ERP "+code)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT line, component_code, component_type, quantity, uom, notes FROM erp.bom_components
		WHERE company_id = $1 AND bom_code = $2 ORDER BY line`, companyID, b.Code)
	if err != nil {
		return nil, mapError(err, "componentes ERP "+code)
	}
	defer rows.Close()
	for rows.Next() {
		var c entity.ERPBOMComponent
		if err := rows.Scan(&c.Line, &c.ComponentCode, &c.ComponentType, &c.Quantity, &c.UoM, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan componente ERP: %w", err)
		}
		b.Components = append(b.Components, c)
	}
	return &b, rows.Err()
}

func (r *ERPReader) ListWorkCenters(ctx context.Context, companyID int) ([]entity.WorkCenter, error) {
	rows, err := r.pool.Query(ctx, `SELECT company_id, code, description, hourly_cost FROM erp.work_centers
		WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, mapError(err, "centros de trabajo")
	}
	defer rows.Close()
	out := []entity.WorkCenter{}
	for rows.Next() {
		var w entity.WorkCenter
		if err := rows.Scan(&w.CompanyID, &w.Code, &w.Description, &w.HourlyCost); err != nil {
			return nil, fmt.Errorf("scan centro de trabajo: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *ERPReader) ListOperations(ctx context.Context, companyID int) ([]entity.Operation, error) {
	rows, err := r.pool.Query(ctx, `SELECT company_id, code, description, work_center FROM erp.operations
		WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, mapError(err, "operaciones")
	}
	defer rows.Close()
	out := []entity.Operation{}
	for rows.Next() {
		var o entity.Operation
		if err := rows.Scan(&o.CompanyID, &o.Code, &o.Description, &o.WorkCenter); err != nil {
			return nil, fmt.Errorf("scan operación: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *ERPReader) ListSuppliers(ctx context.Context, companyID int) ([]entity.Supplier, error) {
	return listCoded(ctx, r.pool, "erp.suppliers", companyID, func(companyID int, code, desc string) entity.Supplier {
		return entity.Supplier{CompanyID: companyID, Code: code, Description: desc}
	})
}

func (r *ERPReader) ListUnits(ctx context.Context, companyID int) ([]entity.UnitOfMeasure, error) {
	return listCoded(ctx, r.pool, "erp.units", companyID, func(companyID int, code, desc string) entity.UnitOfMeasure {
		return entity.UnitOfMeasure{CompanyID: companyID, Code: code, Description: desc}
	})
}

// listCoded lee tablas (company_id, code, description); table es una constante del paquete.
func listCoded[T any](ctx context.Context, q Querier, table string, companyID int, build func(int, string, string) T) ([]T, error) {
	rows, err := q.Query(ctx, `SELECT company_id, code, description FROM `+table+` WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, mapError(err, table)
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var (
			co         int
			code, desc string
		)
		if err := rows.Scan(&co, &code, &desc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, build(co, code, desc))
	}
	return out, rows.Err()
}
