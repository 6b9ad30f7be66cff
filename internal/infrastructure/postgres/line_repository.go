package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.BOMLineRepository = (*BOMLineRepo)(nil)

// BOMLineRepo movimientos fila a fila del reordenamiento. La restricción única de línea es
// inmediata: una colisión en cualquier fase devuelve ErrDuplicate.
type BOMLineRepo struct {
	q Querier
}

// NewBOMLineRepository construye el adaptador; se usa con la tx del TxRunner.
func NewBOMLineRepository(q Querier) *BOMLineRepo {
	return &BOMLineRepo{q: q}
}

// LockHeader SELECT ... FOR UPDATE de la cabecera.
func (r *BOMLineRepo) LockHeader(ctx context.Context, companyID int, bomID int64) error {
	var id int64
	err := r.q.QueryRow(ctx, `SELECT id FROM boms WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, bomID).Scan(&id)
	return mapError(err, fmt.Sprintf("distinta %d", bomID))
}

func (r *BOMLineRepo) MoveComponentLine(ctx context.Context, companyID int, bomID int64, from, to int) (int64, error) {
	return r.move(ctx, `UPDATE bom_components SET line = $4 WHERE company_id = $1 AND bom_id = $2 AND line = $3`,
		companyID, bomID, from, to, "línea")
}

func (r *BOMLineRepo) MoveRoutingStep(ctx context.Context, companyID int, bomID int64, from, to int) (int64, error) {
	return r.move(ctx, `UPDATE bom_routing SET rtg_step = $4 WHERE company_id = $1 AND bom_id = $2 AND rtg_step = $3`,
		companyID, bomID, from, to, "fase")
}

func (r *BOMLineRepo) move(ctx context.Context, query string, companyID int, bomID int64, from, to int, what string) (int64, error) {
	var affected int64
	err := atomic(ctx, r.q, func(q Querier) error {
		tag, err := q.Exec(ctx, query, companyID, bomID, from, to)
		if err != nil {
			return mapError(err, fmt.Sprintf("%s %d -> %d", what, from, to))
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}
