package dto

import "github.com/shopspring/decimal"

// CodedResponse entrada de catálogo código/descripción.
type CodedResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// WorkCenterResponse centro de trabajo.
type WorkCenterResponse struct {
	CodedResponse
	HourlyCost decimal.Decimal `json:"hourlyCost"`
}

// OperationResponse operación de ciclo.
type OperationResponse struct {
	CodedResponse
	WorkCenter string `json:"workCenter,omitempty"`
}

// ListResponse listado genérico con success.
type ListResponse[T any] struct {
	Success int `json:"success"`
	Items   []T `json:"items"`
}
