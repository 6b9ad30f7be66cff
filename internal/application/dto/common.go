package dto

// Valores de success en las respuestas. Numéricos por compatibilidad con los clientes existentes.
const (
	Failed    = 0
	Succeeded = 1
)

// SuccessFlag traduce un resultado interno al valor numérico del cable.
func SuccessFlag(ok bool) int {
	if ok {
		return Succeeded
	}
	return Failed
}

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto y el tope de 100 filas.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Success int    `json:"success"`
	Code    string `json:"code"`
	Message string `json:"msg"`
	Field   string `json:"field,omitempty"`
}

// OperationErrorResponse rechazo del almacenamiento; Code es el código reportado y Message
// el texto original sin modificar.
type OperationErrorResponse struct {
	Success int    `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

// ResultResponse respuesta mínima {success, msg}.
type ResultResponse struct {
	Success int    `json:"success"`
	Message string `json:"msg,omitempty"`
}
