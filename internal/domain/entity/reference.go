package entity

import "time"

// Naturaleza de una referencia intercompany.
const (
	ReferenceNaturePurchase    = "purchase"
	ReferenceNatureSubcontract = "subcontract"
)

// Reference arco dirigido artículo origen -> artículo destino entre empresas distintas.
// TargetItemID puede ser nil: la referencia puede existir antes que el artículo destino.
type Reference struct {
	ID              int64
	SourceCompanyID int
	SourceItemID    int64
	TargetCompanyID int
	TargetItemID    *int64
	Nature          string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
