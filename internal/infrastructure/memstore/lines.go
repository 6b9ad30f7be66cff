package memstore

import (
	"context"
	"fmt"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.BOMLineRepository = lineRepo{}

type lineRepo struct{ v *view }

// LockHeader solo comprueba la existencia: la transacción en memoria ya es exclusiva.
func (r lineRepo) LockHeader(ctx context.Context, companyID int, bomID int64) error {
	if err := r.v.store.hit("LockHeader"); err != nil {
		return err
	}
	return r.v.read(func(st *state) error {
		_, err := st.header(companyID, bomID)
		return err
	})
}

// MoveComponentLine respeta la unicidad inmediata de (empresa, distinta, línea).
func (r lineRepo) MoveComponentLine(ctx context.Context, companyID int, bomID int64, from, to int) (int64, error) {
	var rows int64
	err := r.v.write(ctx, "MoveComponentLine", func(st *state) error {
		row, err := st.componentByLine(companyID, bomID, from)
		if err != nil {
			return nil
		}
		if from != to && st.lineTaken(companyID, bomID, to) {
			return fmt.Errorf("línea %d: %w", to, domain.ErrDuplicate)
		}
		row.Line = to
		st.components[row.ID] = row
		rows = 1
		return nil
	})
	return rows, err
}

func (r lineRepo) MoveRoutingStep(ctx context.Context, companyID int, bomID int64, from, to int) (int64, error) {
	var rows int64
	err := r.v.write(ctx, "MoveRoutingStep", func(st *state) error {
		rt, err := st.routingByStep(companyID, bomID, from)
		if err != nil {
			return nil
		}
		if from != to {
			if _, err := st.routingByStep(companyID, bomID, to); err == nil {
				return fmt.Errorf("fase %d: %w", to, domain.ErrDuplicate)
			}
		}
		rt.RtgStep = to
		st.routing[rt.ID] = rt
		rows = 1
		return nil
	})
	return rows, err
}
