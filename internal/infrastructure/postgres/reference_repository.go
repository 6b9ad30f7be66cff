package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.ReferenceRepository = (*ReferenceRepo)(nil)

// ReferenceRepo referencias intercompany sobre item_references.
type ReferenceRepo struct {
	q Querier
}

// NewReferenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReferenceRepository(q Querier) *ReferenceRepo {
	return &ReferenceRepo{q: q}
}

const referenceColumns = `id, source_company_id, source_item_id, target_company_id, target_item_id, nature,
	created_by, created_at, updated_at`

func scanReference(row pgx.Row) (*entity.Reference, error) {
	var ref entity.Reference
	err := row.Scan(&ref.ID, &ref.SourceCompanyID, &ref.SourceItemID, &ref.TargetCompanyID, &ref.TargetItemID,
		&ref.Nature, &ref.CreatedBy, &ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *ReferenceRepo) Create(ctx context.Context, ref *entity.Reference) error {
	query := `
		INSERT INTO item_references (source_company_id, source_item_id, target_company_id, target_item_id, nature, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := atomicScan(ctx, r.q, query, []any{ref.SourceCompanyID, ref.SourceItemID, ref.TargetCompanyID,
		ref.TargetItemID, ref.Nature, ref.CreatedBy}, &ref.ID, &ref.CreatedAt, &ref.UpdatedAt)
	return mapError(err, "referencia")
}

func (r *ReferenceRepo) GetByID(ctx context.Context, sourceCompanyID int, id int64) (*entity.Reference, error) {
	ref, err := scanReference(r.q.QueryRow(ctx, `SELECT `+referenceColumns+` FROM item_references
		WHERE source_company_id = $1 AND id = $2`, sourceCompanyID, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("referencia %d", id))
	}
	return ref, nil
}

func (r *ReferenceRepo) ListBySource(ctx context.Context, sourceCompanyID int, sourceItemID int64) ([]*entity.Reference, error) {
	rows, err := r.q.Query(ctx, `SELECT `+referenceColumns+` FROM item_references
		WHERE source_company_id = $1 AND source_item_id = $2 ORDER BY id`, sourceCompanyID, sourceItemID)
	if err != nil {
		return nil, mapError(err, "list references")
	}
	defer rows.Close()
	var out []*entity.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// FindBySource devuelve la primera referencia del artículo con esa naturaleza.
func (r *ReferenceRepo) FindBySource(ctx context.Context, sourceCompanyID int, sourceItemID int64, nature string) (*entity.Reference, error) {
	ref, err := scanReference(r.q.QueryRow(ctx, `SELECT `+referenceColumns+` FROM item_references
		WHERE source_company_id = $1 AND source_item_id = $2 AND nature = $3
		ORDER BY id LIMIT 1`, sourceCompanyID, sourceItemID, nature))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("referencia %s del artículo %d", nature, sourceItemID))
	}
	return ref, nil
}

func (r *ReferenceRepo) SetTarget(ctx context.Context, sourceCompanyID int, id, targetItemID int64) error {
	tag, err := atomicExec(ctx, r.q, `
		UPDATE item_references SET target_item_id = $3, updated_at = NOW()
		WHERE source_company_id = $1 AND id = $2`, sourceCompanyID, id, targetItemID)
	if err != nil {
		return mapError(err, "set target")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("referencia %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *ReferenceRepo) Delete(ctx context.Context, sourceCompanyID int, id int64) error {
	tag, err := atomicExec(ctx, r.q, `DELETE FROM item_references WHERE source_company_id = $1 AND id = $2`, sourceCompanyID, id)
	if err != nil {
		return mapError(err, "delete reference")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("referencia %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
