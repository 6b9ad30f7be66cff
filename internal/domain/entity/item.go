package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Naturaleza del artículo (clasificación productiva).
const (
	NatureSemiFinished = "semi_finished"
	NatureFinished     = "finished"
	NaturePurchased    = "purchased"
)

// ValidNature indica si n es una naturaleza soportada.
func ValidNature(n string) bool {
	switch n {
	case NatureSemiFinished, NatureFinished, NaturePurchased:
		return true
	}
	return false
}

// Estados de un artículo.
const (
	ItemStatusActive   = "active"
	ItemStatusDisabled = "disabled"
)

// Item representa un artículo de proyecto (multi-empresa).
// ERPLinked (stato_erp) indica que el artículo refleja un artículo canónico del ERP.
type Item struct {
	ID          int64
	CompanyID   int
	Code        string // puede repetirse: un temporal y su espejo ERP comparten código
	Description string
	Diameter    decimal.Decimal
	Width       decimal.Decimal
	Height      decimal.Decimal
	Length      decimal.Decimal
	Nature      string // ver constantes Nature*
	BaseUoM     string
	Status      string
	Disabled    bool
	ERPLinked   bool
	ERPSyncedAt *time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemUsage resume dónde se usa un artículo (guardia de deshabilitación).
type ItemUsage struct {
	ProjectCount  int
	BOMUsageCount int
}
