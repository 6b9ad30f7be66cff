// Package reference gestiona las referencias intercompañía: arcos dirigidos de un artículo
// de la empresa origen hacia un artículo (posiblemente aún inexistente) de otra empresa.
package reference

import (
	"context"
	"fmt"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

// Linker casos de uso de referencias.
type Linker struct {
	refs  repository.ReferenceRepository
	items repository.ItemRepository
}

// NewLinker construye el linker.
func NewLinker(refs repository.ReferenceRepository, items repository.ItemRepository) *Linker {
	return &Linker{refs: refs, items: items}
}

// CreateInput datos de una referencia nueva. La empresa origen es la del caller.
type CreateInput struct {
	SourceItemID    int64
	TargetCompanyID int
	TargetItemID    *int64
	Nature          string
}

func validNature(n string) bool {
	return n == entity.ReferenceNaturePurchase || n == entity.ReferenceNatureSubcontract
}

// Create valida y registra la referencia.
func (l *Linker) Create(ctx context.Context, sourceCompanyID int, userID string, in CreateInput) (*entity.Reference, error) {
	if in.SourceItemID <= 0 {
		return nil, domain.Invalid("sourceItemId", "requerido")
	}
	if in.TargetCompanyID <= 0 {
		return nil, domain.Invalid("targetCompanyId", "requerido")
	}
	if in.TargetCompanyID == sourceCompanyID {
		return nil, domain.Invalid("targetCompanyId", "la empresa destino debe ser distinta de la origen")
	}
	if !validNature(in.Nature) {
		return nil, domain.Invalid("nature", "naturaleza no válida: "+in.Nature)
	}
	if _, err := l.items.GetByID(ctx, sourceCompanyID, in.SourceItemID); err != nil {
		return nil, fmt.Errorf("artículo origen: %w", err)
	}
	if in.TargetItemID != nil {
		if _, err := l.items.GetByID(ctx, in.TargetCompanyID, *in.TargetItemID); err != nil {
			return nil, fmt.Errorf("artículo destino: %w", err)
		}
	}
	ref := &entity.Reference{
		SourceCompanyID: sourceCompanyID,
		SourceItemID:    in.SourceItemID,
		TargetCompanyID: in.TargetCompanyID,
		TargetItemID:    in.TargetItemID,
		Nature:          in.Nature,
		CreatedBy:       userID,
	}
	if err := l.refs.Create(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// ListBySource referencias salientes del artículo.
func (l *Linker) ListBySource(ctx context.Context, sourceCompanyID int, sourceItemID int64) ([]*entity.Reference, error) {
	return l.refs.ListBySource(ctx, sourceCompanyID, sourceItemID)
}

// ResolveTarget devuelve el artículo destino de la referencia con esa naturaleza.
// ErrConflict si la referencia existe pero aún no tiene artículo destino.
func (l *Linker) ResolveTarget(ctx context.Context, sourceCompanyID int, sourceItemID int64, nature string) (*entity.Item, error) {
	if !validNature(nature) {
		return nil, domain.Invalid("nature", "naturaleza no válida: "+nature)
	}
	ref, err := l.refs.FindBySource(ctx, sourceCompanyID, sourceItemID, nature)
	if err != nil {
		return nil, err
	}
	if ref.TargetItemID == nil {
		return nil, fmt.Errorf("referencia %d sin artículo destino: %w", ref.ID, domain.ErrConflict)
	}
	return l.items.GetByID(ctx, ref.TargetCompanyID, *ref.TargetItemID)
}

// AttachTarget fija el artículo destino de una referencia que aún no lo tiene.
func (l *Linker) AttachTarget(ctx context.Context, sourceCompanyID int, refID, targetItemID int64) (*entity.Reference, error) {
	if targetItemID <= 0 {
		return nil, domain.Invalid("targetItemId", "requerido")
	}
	ref, err := l.refs.GetByID(ctx, sourceCompanyID, refID)
	if err != nil {
		return nil, err
	}
	if ref.TargetItemID != nil {
		if *ref.TargetItemID == targetItemID {
			return ref, nil
		}
		return nil, fmt.Errorf("referencia %d ya tiene artículo destino: %w", refID, domain.ErrConflict)
	}
	if _, err := l.items.GetByID(ctx, ref.TargetCompanyID, targetItemID); err != nil {
		return nil, fmt.Errorf("artículo destino: %w", err)
	}
	if err := l.refs.SetTarget(ctx, sourceCompanyID, refID, targetItemID); err != nil {
		return nil, err
	}
	ref.TargetItemID = &targetItemID
	return ref, nil
}

// Delete elimina la referencia.
func (l *Linker) Delete(ctx context.Context, sourceCompanyID int, refID int64) error {
	return l.refs.Delete(ctx, sourceCompanyID, refID)
}
