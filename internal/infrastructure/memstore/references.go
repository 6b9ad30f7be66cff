package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.ReferenceRepository = referenceRepo{}

type referenceRepo struct{ v *view }

func (r referenceRepo) Create(ctx context.Context, ref *entity.Reference) error {
	return r.v.write(ctx, "CreateReference", func(st *state) error {
		for _, cur := range st.references {
			if cur.SourceCompanyID == ref.SourceCompanyID && cur.SourceItemID == ref.SourceItemID &&
				cur.TargetCompanyID == ref.TargetCompanyID && cur.Nature == ref.Nature {
				return fmt.Errorf("referencia: %w", domain.ErrDuplicate)
			}
		}
		now := r.v.store.now()
		ref.ID = st.id()
		ref.CreatedAt = now
		ref.UpdatedAt = now
		st.references[ref.ID] = *ref
		return nil
	})
}

func (r referenceRepo) GetByID(ctx context.Context, sourceCompanyID int, id int64) (*entity.Reference, error) {
	var out *entity.Reference
	err := r.v.read(func(st *state) error {
		ref, err := st.reference(sourceCompanyID, id)
		if err != nil {
			return err
		}
		out = &ref
		return nil
	})
	return out, err
}

func (r referenceRepo) ListBySource(ctx context.Context, sourceCompanyID int, sourceItemID int64) ([]*entity.Reference, error) {
	var out []*entity.Reference
	err := r.v.read(func(st *state) error {
		for _, ref := range st.references {
			if ref.SourceCompanyID == sourceCompanyID && ref.SourceItemID == sourceItemID {
				ref := ref
				out = append(out, &ref)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r referenceRepo) FindBySource(ctx context.Context, sourceCompanyID int, sourceItemID int64, nature string) (*entity.Reference, error) {
	refs, err := r.ListBySource(ctx, sourceCompanyID, sourceItemID)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Nature == nature {
			return ref, nil
		}
	}
	return nil, fmt.Errorf("referencia %s del artículo %d: %w", nature, sourceItemID, domain.ErrNotFound)
}

func (r referenceRepo) SetTarget(ctx context.Context, sourceCompanyID int, id, targetItemID int64) error {
	return r.v.write(ctx, "SetReferenceTarget", func(st *state) error {
		ref, err := st.reference(sourceCompanyID, id)
		if err != nil {
			return err
		}
		target := targetItemID
		ref.TargetItemID = &target
		ref.UpdatedAt = r.v.store.now()
		st.references[id] = ref
		return nil
	})
}

func (r referenceRepo) Delete(ctx context.Context, sourceCompanyID int, id int64) error {
	return r.v.write(ctx, "DeleteReference", func(st *state) error {
		if _, err := st.reference(sourceCompanyID, id); err != nil {
			return err
		}
		delete(st.references, id)
		return nil
	})
}

func (st *state) reference(sourceCompanyID int, id int64) (entity.Reference, error) {
	ref, ok := st.references[id]
	if !ok || ref.SourceCompanyID != sourceCompanyID {
		return entity.Reference{}, fmt.Errorf("referencia %d: %w", id, domain.ErrNotFound)
	}
	return ref, nil
}
