package dto

import (
	"time"

	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// CreateReferenceRequest cuerpo {referenceData} de una referencia intercompañía.
type CreateReferenceRequest struct {
	ReferenceData struct {
		SourceItemID    int64  `json:"sourceItemId"`
		TargetCompanyID int    `json:"targetCompanyId"`
		TargetItemID    *int64 `json:"targetItemId,omitempty"`
		Nature          string `json:"nature"`
	} `json:"referenceData"`
}

// AttachTargetRequest fija el artículo destino.
type AttachTargetRequest struct {
	TargetItemID int64 `json:"targetItemId"`
}

// ReferenceResponse salida de referencia.
type ReferenceResponse struct {
	ID              int64     `json:"id"`
	SourceCompanyID int       `json:"sourceCompanyId"`
	SourceItemID    int64     `json:"sourceItemId"`
	TargetCompanyID int       `json:"targetCompanyId"`
	TargetItemID    *int64    `json:"targetItemId,omitempty"`
	Nature          string    `json:"nature"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewReferenceResponse mapea la referencia.
func NewReferenceResponse(r *entity.Reference) ReferenceResponse {
	return ReferenceResponse{
		ID: r.ID, SourceCompanyID: r.SourceCompanyID, SourceItemID: r.SourceItemID,
		TargetCompanyID: r.TargetCompanyID, TargetItemID: r.TargetItemID,
		Nature: r.Nature, CreatedAt: r.CreatedAt,
	}
}
