package entity

import "github.com/shopspring/decimal"

// ERPItem datos maestros de un artículo en el ERP externo.
type ERPItem struct {
	CompanyID   int
	Code        string
	Description string
	Nature      string // puede venir vacío
	BaseUoM     string
}

// ERPBOM distinta definida en el ERP externo (se identifica por código de artículo).
type ERPBOM struct {
	CompanyID   int
	Code        string
	Description string
	UoM         string
	Components  []ERPBOMComponent
}

// ERPBOMComponent línea de componente de una distinta ERP.
type ERPBOMComponent struct {
	Line          int
	ComponentCode string
	ComponentType string
	Quantity      decimal.Decimal
	UoM           string
	Notes         string
}
