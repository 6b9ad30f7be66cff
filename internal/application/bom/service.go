// Package bom implementa el motor de distintas base: el accesor (punto único de mutación
// y de lectura), el motor de reordenamiento de líneas y el motor de composición.
package bom

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/pkg/tracing"
)

// Service accesor del almacén de distintas.
type Service struct {
	*core
	reorder  *Reorderer
	composer *Composer
}

// NewService construye el accesor junto con el reordenador y el compositor.
func NewService(d Deps, opts Options) *Service {
	c := newCore(d, opts)
	return &Service{
		core:     c,
		reorder:  &Reorderer{core: c},
		composer: &Composer{core: c},
	}
}

// Reorderer motor de reordenamiento.
func (s *Service) Reorderer() *Reorderer { return s.reorder }

// Composer motor de composición.
func (s *Service) Composer() *Composer { return s.composer }

// Outcome resultado de Execute. Result siempre está; Reorder o Replace solo para las
// acciones de su motor.
type Outcome struct {
	Result  *bom.MutationResult
	Reorder *ReorderResult
	Replace *ReplaceResult
}

// Mutate ejecuta exactamente una mutación estructural y devuelve su resumen.
func (s *Service) Mutate(ctx context.Context, companyID int, userID string, m bom.Mutation) (*bom.MutationResult, error) {
	out, err := s.Execute(ctx, companyID, userID, m)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Execute es el único despacho de mutaciones. Las acciones de varios pasos (reordenar,
// sustituir) se delegan en su motor y su resultado detallado viaja en el Outcome.
func (s *Service) Execute(ctx context.Context, companyID int, userID string, m bom.Mutation) (out *Outcome, err error) {
	ctx, span := startSpan(ctx, "bom.Mutate", companyID, attribute.String("bom.action", string(m.Action())))
	defer func() { tracing.End(span, err) }()

	if err := m.Validate(); err != nil {
		return nil, err
	}

	switch cmd := m.(type) {
	case bom.ReorderComponents:
		r, err := s.reorder.ReorderComponents(ctx, companyID, userID, cmd.BOMID, cmd.Moves)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: r.MutationResult(), Reorder: r}, nil
	case bom.ReorderRouting:
		r, err := s.reorder.ReorderRouting(ctx, companyID, userID, cmd.BOMID, cmd.Moves)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: r.MutationResult(), Reorder: r}, nil
	case bom.ReplaceComponent:
		r, err := s.composer.ReplaceComponent(ctx, companyID, userID, cmd)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: r.MutationResult(), Replace: r}, nil
	case bom.ReplaceWithNewComponent:
		r, err := s.composer.ReplaceWithNewComponent(ctx, companyID, userID, cmd)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: r.MutationResult(), Replace: r}, nil
	}

	unlock, err := s.lockFor(ctx, companyID, m)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var res *bom.MutationResult
	err = s.tx.RunBOM(ctx, func(repos repository.TxRepos) error {
		r, _, err := s.apply(ctx, repos, companyID, userID, m)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("company_id", companyID).Str("action", string(m.Action())).Int64("bom_id", res.BOMID).Msg("mutación confirmada")
	s.publish(ctx, companyID, userID, m.Action(), res.BOMID, targetItem(m))
	return &Outcome{Result: res}, nil
}

// lockFor COPY serializa sobre el artículo destino (asignación de versión); el resto de
// mutaciones simples son una sola sentencia y no toman candado.
func (s *Service) lockFor(ctx context.Context, companyID int, m bom.Mutation) (func(), error) {
	if c, ok := m.(bom.CopyBOM); ok {
		return s.lock(ctx, ItemLockKey(companyID, c.TargetItemID))
	}
	return func() {}, nil
}

// Read punto único de lectura. El tipo devuelto depende de la acción:
// *entity.BOM, []entity.BOMComponent, []entity.BOMRouting, *bom.Full o *bom.Multilevel.
func (s *Service) Read(ctx context.Context, q bom.ReadQuery) (out any, err error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "bom.Read", q.CompanyID, attribute.String("bom.action", string(q.Action)))
	defer func() { tracing.End(span, err) }()

	switch q.Action {
	case bom.ReadHeader:
		return resolveHeader(ctx, s.repos.BOMs, q.CompanyID, q.Ref)
	case bom.ReadComponents:
		h, err := resolveHeader(ctx, s.repos.BOMs, q.CompanyID, q.Ref)
		if err != nil {
			return nil, err
		}
		return s.repos.BOMs.Components(ctx, q.CompanyID, h.ID)
	case bom.ReadRouting:
		h, err := resolveHeader(ctx, s.repos.BOMs, q.CompanyID, q.Ref)
		if err != nil {
			return nil, err
		}
		return s.repos.BOMs.Routing(ctx, q.CompanyID, h.ID)
	case bom.ReadFull:
		return loadFull(ctx, s.repos.BOMs, q.CompanyID, q.Ref)
	case bom.ReadMultilevel:
		return s.multilevel(ctx, s.repos, q.CompanyID, q.Ref, q.Options)
	}
	return nil, domain.Invalid("action", "lectura no soportada: "+string(q.Action))
}

// GetHeader GET_BOM.
func (s *Service) GetHeader(ctx context.Context, companyID int, ref bom.Ref) (*entity.BOM, error) {
	out, err := s.Read(ctx, bom.ReadQuery{Action: bom.ReadHeader, CompanyID: companyID, Ref: ref})
	if err != nil {
		return nil, err
	}
	return out.(*entity.BOM), nil
}

// GetComponents GET_BOM_COMPONENTS.
func (s *Service) GetComponents(ctx context.Context, companyID int, ref bom.Ref) ([]entity.BOMComponent, error) {
	out, err := s.Read(ctx, bom.ReadQuery{Action: bom.ReadComponents, CompanyID: companyID, Ref: ref})
	if err != nil {
		return nil, err
	}
	return out.([]entity.BOMComponent), nil
}

// GetRouting GET_BOM_ROUTING.
func (s *Service) GetRouting(ctx context.Context, companyID int, ref bom.Ref) ([]entity.BOMRouting, error) {
	out, err := s.Read(ctx, bom.ReadQuery{Action: bom.ReadRouting, CompanyID: companyID, Ref: ref})
	if err != nil {
		return nil, err
	}
	return out.([]entity.BOMRouting), nil
}

// GetFull GET_BOM_FULL.
func (s *Service) GetFull(ctx context.Context, companyID int, ref bom.Ref) (*bom.Full, error) {
	out, err := s.Read(ctx, bom.ReadQuery{Action: bom.ReadFull, CompanyID: companyID, Ref: ref})
	if err != nil {
		return nil, err
	}
	return out.(*bom.Full), nil
}

// GetMultilevel GET_BOM_MULTILEVEL.
func (s *Service) GetMultilevel(ctx context.Context, companyID int, ref bom.Ref, opts bom.MultilevelOptions) (*bom.Multilevel, error) {
	out, err := s.Read(ctx, bom.ReadQuery{Action: bom.ReadMultilevel, CompanyID: companyID, Ref: ref, Options: opts})
	if err != nil {
		return nil, err
	}
	return out.(*bom.Multilevel), nil
}

// resolveHeader identifica la cabecera por id o por (artículo, versión); versión nil = última.
func resolveHeader(ctx context.Context, store repository.BOMStore, companyID int, ref bom.Ref) (*entity.BOM, error) {
	if ref.BOMID > 0 {
		return store.GetHeader(ctx, companyID, ref.BOMID)
	}
	if ref.Version != nil {
		return store.GetByVersion(ctx, companyID, ref.ItemID, *ref.Version)
	}
	h, err := store.LatestBOM(ctx, companyID, ref.ItemID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("el artículo %d no tiene distinta: %w", ref.ItemID, domain.ErrNotFound)
	}
	return h, nil
}

func loadFull(ctx context.Context, store repository.BOMStore, companyID int, ref bom.Ref) (*bom.Full, error) {
	h, err := resolveHeader(ctx, store, companyID, ref)
	if err != nil {
		return nil, err
	}
	full := &bom.Full{Header: *h}
	if full.Components, err = store.Components(ctx, companyID, h.ID); err != nil {
		return nil, err
	}
	if full.Routing, err = store.Routing(ctx, companyID, h.ID); err != nil {
		return nil, err
	}
	if full.Versions, err = store.Versions(ctx, companyID, h.ItemID); err != nil {
		return nil, err
	}
	return full, nil
}

func (s *Service) multilevel(ctx context.Context, repos repository.TxRepos, companyID int, ref bom.Ref, opts bom.MultilevelOptions) (*bom.Multilevel, error) {
	h, err := resolveHeader(ctx, repos.BOMs, companyID, ref)
	if err != nil {
		return nil, err
	}
	disabled := func(ctx context.Context, companyID int, itemID int64) (bool, error) {
		it, err := repos.Items.GetByID(ctx, companyID, itemID)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return it.Disabled, nil
	}
	return bom.Expand(ctx, repos.BOMs, disabled, *h, opts)
}
