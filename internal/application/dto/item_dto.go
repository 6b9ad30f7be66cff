package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// CreateItemRequest entrada para crear un artículo de proyecto.
type CreateItemRequest struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Diameter    decimal.Decimal `json:"diameter"`
	Width       decimal.Decimal `json:"width"`
	Height      decimal.Decimal `json:"height"`
	Length      decimal.Decimal `json:"length"`
	Nature      string          `json:"nature"`
	BaseUoM     string          `json:"baseUom"`
}

// UpdateItemRequest campos opcionales; nil = no modificar.
type UpdateItemRequest struct {
	Description *string          `json:"description,omitempty"`
	Diameter    *decimal.Decimal `json:"diameter,omitempty"`
	Width       *decimal.Decimal `json:"width,omitempty"`
	Height      *decimal.Decimal `json:"height,omitempty"`
	Length      *decimal.Decimal `json:"length,omitempty"`
	Nature      *string          `json:"nature,omitempty"`
	BaseUoM     *string          `json:"baseUom,omitempty"`
}

// ItemResponse salida de artículo.
type ItemResponse struct {
	ID          int64           `json:"id"`
	CompanyID   int             `json:"companyId"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Diameter    decimal.Decimal `json:"diameter"`
	Width       decimal.Decimal `json:"width"`
	Height      decimal.Decimal `json:"height"`
	Length      decimal.Decimal `json:"length"`
	Nature      string          `json:"nature"`
	BaseUoM     string          `json:"baseUom"`
	Status      string          `json:"status"`
	Disabled    bool            `json:"disabled"`
	ERPLinked   int             `json:"statoErp"`
	ERPSyncedAt *time.Time      `json:"erpSyncedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ItemListResponse listado paginado.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// DisableCheckResponse resultado de la guardia de deshabilitación.
type DisableCheckResponse struct {
	Success       int    `json:"success"`
	CanDisable    int    `json:"canDisable"`
	Reason        string `json:"msg,omitempty"`
	ProjectCount  int    `json:"projectCount"`
	BOMUsageCount int    `json:"bomUsageCount"`
}

// ImportERPItemRequest importación de un artículo ERP a un proyecto.
type ImportERPItemRequest struct {
	ProjectID int64  `json:"projectId"`
	ERPCode   string `json:"erpCode"`
	ImportBOM bool   `json:"importBom"`
	MaxLevels int    `json:"maxLevels"`
}

// ImportERPItemResponse resultado de la importación.
type ImportERPItemResponse struct {
	Success      int          `json:"success"`
	Item         ItemResponse `json:"item"`
	BOMsImported int          `json:"bomsImported"`
}

// NewItemResponse mapea el artículo.
func NewItemResponse(it *entity.Item) ItemResponse {
	return ItemResponse{
		ID: it.ID, CompanyID: it.CompanyID, Code: it.Code, Description: it.Description,
		Diameter: it.Diameter, Width: it.Width, Height: it.Height, Length: it.Length,
		Nature: it.Nature, BaseUoM: it.BaseUoM, Status: it.Status, Disabled: it.Disabled,
		ERPLinked: SuccessFlag(it.ERPLinked), ERPSyncedAt: it.ERPSyncedAt,
		CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt,
	}
}
