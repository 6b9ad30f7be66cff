package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.ItemRepository = itemRepo{}

type itemRepo struct{ v *view }

func (r itemRepo) Create(ctx context.Context, item *entity.Item) error {
	return r.v.write(ctx, "CreateItem", func(st *state) error {
		now := r.v.store.now()
		item.ID = st.id()
		if item.Status == "" {
			item.Status = entity.ItemStatusActive
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		st.items[item.ID] = *item
		return nil
	})
}

func (r itemRepo) Update(ctx context.Context, item *entity.Item) error {
	return r.v.write(ctx, "UpdateItem", func(st *state) error {
		cur, err := st.item(item.CompanyID, item.ID)
		if err != nil {
			return err
		}
		item.CreatedAt = cur.CreatedAt
		item.CreatedBy = cur.CreatedBy
		item.UpdatedAt = r.v.store.now()
		st.items[item.ID] = *item
		return nil
	})
}

func (r itemRepo) GetByID(ctx context.Context, companyID int, id int64) (*entity.Item, error) {
	var out *entity.Item
	err := r.v.read(func(st *state) error {
		it, err := st.item(companyID, id)
		if err != nil {
			return err
		}
		out = &it
		return nil
	})
	return out, err
}

// FindByCode prefiere el artículo vinculado al ERP; entre iguales, el de menor id.
func (r itemRepo) FindByCode(ctx context.Context, companyID int, code string) (*entity.Item, error) {
	var out *entity.Item
	err := r.v.read(func(st *state) error {
		var best *entity.Item
		for _, it := range st.items {
			if it.CompanyID != companyID || !strings.EqualFold(it.Code, code) {
				continue
			}
			it := it
			switch {
			case best == nil:
				best = &it
			case it.ERPLinked && !best.ERPLinked:
				best = &it
			case it.ERPLinked == best.ERPLinked && it.ID < best.ID:
				best = &it
			}
		}
		if best == nil {
			return fmt.Errorf("artículo %s: %w", code, domain.ErrNotFound)
		}
		out = best
		return nil
	})
	return out, err
}

func (r itemRepo) NextTemporarySeq(ctx context.Context, companyID int, prefix string) (int, error) {
	var seq int
	err := r.v.write(ctx, "NextTemporarySeq", func(st *state) error {
		k := seqKey{companyID: companyID, prefix: prefix}
		st.tempSeq[k]++
		seq = st.tempSeq[k]
		return nil
	})
	return seq, err
}

func (r itemRepo) Usage(ctx context.Context, companyID int, itemID int64) (entity.ItemUsage, error) {
	var u entity.ItemUsage
	err := r.v.read(func(st *state) error {
		if _, err := st.item(companyID, itemID); err != nil {
			return err
		}
		for l := range st.projects {
			if l.companyID == companyID && l.itemID == itemID {
				u.ProjectCount++
			}
		}
		for _, row := range st.components {
			if row.CompanyID == companyID && row.ComponentItemID == itemID {
				u.BOMUsageCount++
			}
		}
		return nil
	})
	return u, err
}

func (r itemRepo) Disable(ctx context.Context, companyID int, itemID int64) error {
	return r.v.write(ctx, "DisableItem", func(st *state) error {
		it, err := st.item(companyID, itemID)
		if err != nil {
			return err
		}
		it.Disabled = true
		it.Status = entity.ItemStatusDisabled
		it.UpdatedAt = r.v.store.now()
		st.items[it.ID] = it
		return nil
	})
}

func (r itemRepo) UpsertFromERP(ctx context.Context, item *entity.Item) (int64, error) {
	var id int64
	err := r.v.write(ctx, "UpsertFromERP", func(st *state) error {
		now := r.v.store.now()
		for _, it := range st.items {
			if it.CompanyID == item.CompanyID && it.ERPLinked && strings.EqualFold(it.Code, item.Code) {
				it.Description = item.Description
				it.Nature = item.Nature
				it.BaseUoM = item.BaseUoM
				it.ERPSyncedAt = item.ERPSyncedAt
				it.UpdatedAt = now
				st.items[it.ID] = it
				id = it.ID
				return nil
			}
		}
		row := *item
		row.ID = st.id()
		row.ERPLinked = true
		if row.Status == "" {
			row.Status = entity.ItemStatusActive
		}
		row.CreatedAt = now
		row.UpdatedAt = now
		st.items[row.ID] = row
		id = row.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	if r.v.store.hideUpsertID() {
		return 0, nil
	}
	return id, nil
}

func (r itemRepo) LinkProject(ctx context.Context, companyID int, projectID, itemID int64) error {
	return r.v.write(ctx, "LinkProject", func(st *state) error {
		if _, err := st.item(companyID, itemID); err != nil {
			return err
		}
		st.projects[projectLink{companyID: companyID, projectID: projectID, itemID: itemID}] = struct{}{}
		return nil
	})
}

func (r itemRepo) ListByCompany(ctx context.Context, companyID int, limit, offset int) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.v.read(func(st *state) error {
		var all []entity.Item
		for _, it := range st.items {
			if it.CompanyID == companyID {
				all = append(all, it)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		if offset > len(all) {
			offset = len(all)
		}
		all = all[offset:]
		if limit > 0 && limit < len(all) {
			all = all[:limit]
		}
		for i := range all {
			out = append(out, &all[i])
		}
		return nil
	})
	return out, err
}
