package entity

import "github.com/shopspring/decimal"

// Datos maestros de solo lectura para el motor de distintas.

// WorkCenter centro de trabajo.
type WorkCenter struct {
	CompanyID   int
	Code        string
	Description string
	HourlyCost  decimal.Decimal
}

// Operation operación de ciclo.
type Operation struct {
	CompanyID   int
	Code        string
	Description string
	WorkCenter  string // centro de trabajo por defecto
}

// Supplier proveedor (subcontratación).
type Supplier struct {
	CompanyID   int
	Code        string
	Description string
}

// UnitOfMeasure unidad de medida.
type UnitOfMeasure struct {
	CompanyID   int
	Code        string
	Description string
}
