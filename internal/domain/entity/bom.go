package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado inicial de una distinta.
const BOMStatusDraft = "draft"

// Tipos de componente con semántica propia en la explosión multinivel.
const (
	ComponentTypeNormal  = "normal"
	ComponentTypePhantom = "phantom"
)

// BOM cabecera de distinta base; pertenece a exactamente un Item (el padre que se fabrica).
// Puede haber varias versiones por artículo; la de mayor Version es la canónica.
type BOM struct {
	ID          int64
	CompanyID   int
	ItemID      int64
	ItemCode    string // solo lectura (join con items)
	Code        string
	Description string
	Version     int
	UoM         string
	Status      string // texto libre: draft, in_production, ...
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
	Price       decimal.Decimal
	LotSize     decimal.Decimal
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BOMComponent línea de componente. Line es único dentro de (CompanyID, BOMID).
type BOMComponent struct {
	ID                   int64
	CompanyID            int
	BOMID                int64
	Line                 int
	ComponentItemID      int64
	ComponentCode        string // solo lectura (join con items)
	ComponentDescription string // solo lectura (join con items)
	ComponentType        string
	Quantity             decimal.Decimal
	UoM                  string
	UnitCost             decimal.Decimal
	TotalCost            decimal.Decimal
	FixedCost            decimal.Decimal
	Notes                string
	Details              string
	ParentComponentID    *int64
}

// BOMRouting fase de ciclo. RtgStep es único dentro de (CompanyID, BOMID).
type BOMRouting struct {
	ID              int64
	CompanyID       int
	BOMID           int64
	RtgStep         int
	Operation       string
	WorkCenter      string
	ProcessingTime  decimal.Decimal
	SetupTime       decimal.Decimal
	Workers         decimal.Decimal
	SetupWorkers    decimal.Decimal
	Subcontracted   bool
	SupplierCode    string
	SubcontractCost decimal.Decimal
	Notes           string
}

// BOMVersion entrada del listado de versiones de un artículo.
type BOMVersion struct {
	BOMID     int64
	Version   int
	Status    string
	CreatedAt time.Time
}
