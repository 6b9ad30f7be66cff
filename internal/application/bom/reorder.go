package bom

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/pkg/tracing"
)

// Reorderer renumera líneas de componente y fases de ciclo en dos fases dentro de una
// única transacción, con la cabecera bloqueada (SELECT FOR UPDATE).
type Reorderer struct {
	*core
}

// ReorderResult resultado de un reordenamiento confirmado.
type ReorderResult struct {
	BOMID   int64
	Action  bom.Action
	Moved   int         // filas renumeradas en la fase 2
	Missing int         // entradas cuyo ordinal actual no existía
	Final   map[int]int // ordinal actual -> ordinal final
}

// MutationResult resumen genérico del reordenamiento.
func (r *ReorderResult) MutationResult() *bom.MutationResult {
	return &bom.MutationResult{BOMID: r.BOMID, Msg: fmt.Sprintf("%d líneas reordenadas", r.Moved)}
}

// ReorderComponents mueve cada línea Current a Desired.
func (r *Reorderer) ReorderComponents(ctx context.Context, companyID int, userID string, bomID int64, moves []bom.LineMove) (*ReorderResult, error) {
	plan, err := bom.PlanComponentRenumber(moves)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, companyID, userID, bomID, bom.ActionReorderComponents, plan, func(l repository.BOMLineRepository) moveFunc {
		return l.MoveComponentLine
	})
}

// ReorderRouting renumera las fases a 10, 20, 30... según el orden recibido.
func (r *Reorderer) ReorderRouting(ctx context.Context, companyID int, userID string, bomID int64, moves []bom.StepMove) (*ReorderResult, error) {
	plan, err := bom.PlanRoutingRenumber(moves)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, companyID, userID, bomID, bom.ActionReorderRouting, plan, func(l repository.BOMLineRepository) moveFunc {
		return l.MoveRoutingStep
	})
}

type moveFunc func(ctx context.Context, companyID int, bomID int64, from, to int) (int64, error)

func (r *Reorderer) run(ctx context.Context, companyID int, userID string, bomID int64, action bom.Action, plan bom.Plan, pick func(repository.BOMLineRepository) moveFunc) (res *ReorderResult, err error) {
	ctx, span := startSpan(ctx, "bom.Reorder", companyID,
		attribute.Int64("bom.id", bomID), attribute.String("bom.action", string(action)), attribute.Int("bom.moves", len(plan.Phase1)))
	defer func() { tracing.End(span, err) }()

	unlock, err := r.lock(ctx, BOMLockKey(companyID, bomID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	res = &ReorderResult{BOMID: bomID, Action: action, Final: plan.Final()}
	err = r.tx.RunBOM(ctx, func(repos repository.TxRepos) error {
		if err := repos.Lines.LockHeader(ctx, companyID, bomID); err != nil {
			return err
		}
		move := pick(repos.Lines)
		res.Moved, res.Missing = 0, 0
		for _, step := range plan.Phase1 {
			n, err := move(ctx, companyID, bomID, step.From, step.To)
			if err != nil {
				return fmt.Errorf("fase 1 %d->%d: %w", step.From, step.To, err)
			}
			if n == 0 {
				res.Missing++
			}
		}
		for _, step := range plan.Phase2 {
			n, err := move(ctx, companyID, bomID, step.From, step.To)
			if err != nil {
				return fmt.Errorf("fase 2 %d->%d: %w", step.From, step.To, err)
			}
			res.Moved += int(n)
		}
		return nil
	})
	log := r.log.ForCompany(companyID)
	if err != nil {
		log.Warn().Err(err).Int64("bom_id", bomID).Msg("reordenamiento revertido")
		return nil, err
	}
	log.Info().Int64("bom_id", bomID).Str("action", string(action)).
		Int("moved", res.Moved).Int("missing", res.Missing).Msg("reordenamiento confirmado")
	r.publish(ctx, companyID, userID, action, bomID, 0)
	return res, nil
}
