package bom

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// DefaultMaxLevel límite de niveles para la explosión multinivel y la importación ERP.
const DefaultMaxLevel = 10

// Ref identifica una distinta por id o por (ItemID, Version). Version nil = última.
type Ref struct {
	BOMID   int64
	ItemID  int64
	Version *int
}

// Validate exige uno de los dos modos de identificación.
func (r Ref) Validate() error {
	if r.BOMID <= 0 && r.ItemID <= 0 {
		return domain.Invalid("id", "se requiere id de distinta o id de artículo")
	}
	if r.Version != nil && *r.Version <= 0 {
		return domain.Invalid("version", "debe ser mayor que cero")
	}
	return nil
}

// MultilevelOptions opciones de GET_BOM_MULTILEVEL.
type MultilevelOptions struct {
	MaxLevel        int
	ExpandPhantoms  bool
	IncludeDisabled bool
	IncludeRouting  bool
}

func (o MultilevelOptions) maxLevel() int {
	if o.MaxLevel <= 0 {
		return DefaultMaxLevel
	}
	return o.MaxLevel
}

// ReadQuery parámetros del punto de lectura único.
type ReadQuery struct {
	Action    ReadAction
	CompanyID int
	Ref       Ref
	Options   MultilevelOptions
}

// Validate valida acción e identificación.
func (q ReadQuery) Validate() error {
	if _, err := ParseReadAction(string(q.Action)); err != nil {
		return err
	}
	return q.Ref.Validate()
}

// Full respuesta de GET_BOM_FULL.
type Full struct {
	Header     entity.BOM
	Components []entity.BOMComponent
	Routing    []entity.BOMRouting
	Versions   []entity.BOMVersion
}

// Node nodo del árbol multinivel.
type Node struct {
	Level            int
	Component        entity.BOMComponent
	ExtendedQuantity decimal.Decimal // cantidad acumulada desde la raíz
	SubBOMID         int64           // distinta del componente si existe
	Routing          []entity.BOMRouting
	Children         []*Node
	Cyclic           bool // el componente ya está en el camino actual
	Truncated        bool // tiene distinta pero se alcanzó MaxLevel
}

// Multilevel respuesta de GET_BOM_MULTILEVEL.
type Multilevel struct {
	Header     entity.BOM
	Routing    []entity.BOMRouting
	Components []*Node
	Depth      int // nivel más profundo alcanzado
}
