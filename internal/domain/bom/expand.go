package bom

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// ExpandSource lecturas que necesita la explosión multinivel.
type ExpandSource interface {
	// LatestBOM devuelve la última versión de la distinta del artículo o nil si no tiene.
	LatestBOM(ctx context.Context, companyID int, itemID int64) (*entity.BOM, error)
	Components(ctx context.Context, companyID int, bomID int64) ([]entity.BOMComponent, error)
	Routing(ctx context.Context, companyID int, bomID int64) ([]entity.BOMRouting, error)
}

// DisabledLookup indica si un artículo componente está deshabilitado.
type DisabledLookup func(ctx context.Context, companyID int, itemID int64) (bool, error)

// Expand explota recursivamente la distinta root.
// Los componentes phantom solo se expanden con ExpandPhantoms; un componente que ya
// está en el camino actual se marca Cyclic y no se expande.
func Expand(ctx context.Context, src ExpandSource, disabled DisabledLookup, root entity.BOM, opts MultilevelOptions) (*Multilevel, error) {
	e := &expander{src: src, disabled: disabled, opts: opts, max: opts.maxLevel()}
	out := &Multilevel{Header: root}
	if opts.IncludeRouting {
		rtg, err := src.Routing(ctx, root.CompanyID, root.ID)
		if err != nil {
			return nil, err
		}
		out.Routing = rtg
	}
	path := map[int64]struct{}{root.ItemID: {}}
	nodes, err := e.level(ctx, root, 1, decimal.NewFromInt(1), path)
	if err != nil {
		return nil, err
	}
	out.Components = nodes
	out.Depth = e.depth
	return out, nil
}

type expander struct {
	src      ExpandSource
	disabled DisabledLookup
	opts     MultilevelOptions
	max      int
	depth    int
}

func (e *expander) level(ctx context.Context, parent entity.BOM, lvl int, factor decimal.Decimal, path map[int64]struct{}) ([]*Node, error) {
	comps, err := e.src.Components(ctx, parent.CompanyID, parent.ID)
	if err != nil {
		return nil, err
	}
	if lvl > e.depth && len(comps) > 0 {
		e.depth = lvl
	}
	nodes := make([]*Node, 0, len(comps))
	for _, c := range comps {
		if !e.opts.IncludeDisabled && e.disabled != nil {
			off, err := e.disabled(ctx, c.CompanyID, c.ComponentItemID)
			if err != nil {
				return nil, err
			}
			if off {
				continue
			}
		}
		n := &Node{
			Level:            lvl,
			Component:        c,
			ExtendedQuantity: factor.Mul(c.Quantity),
		}
		nodes = append(nodes, n)

		if c.ComponentType == entity.ComponentTypePhantom && !e.opts.ExpandPhantoms {
			continue
		}
		sub, err := e.src.LatestBOM(ctx, c.CompanyID, c.ComponentItemID)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			continue
		}
		n.SubBOMID = sub.ID
		if _, onPath := path[c.ComponentItemID]; onPath {
			n.Cyclic = true
			continue
		}
		if lvl >= e.max {
			n.Truncated = true
			continue
		}
		if e.opts.IncludeRouting {
			if n.Routing, err = e.src.Routing(ctx, sub.CompanyID, sub.ID); err != nil {
				return nil, err
			}
		}
		path[c.ComponentItemID] = struct{}{}
		children, err := e.level(ctx, *sub, lvl+1, n.ExtendedQuantity, path)
		delete(path, c.ComponentItemID)
		if err != nil {
			return nil, err
		}
		n.Children = children
	}
	return nodes, nil
}
