package bom

// Códigos de OperationError que el almacenamiento reporta al rechazar una mutación.
const (
	CodeRejected          = 50000 // rechazo sin código específico
	CodeSelfReference     = 50010 // el componente es el mismo artículo padre
	CodeDisabledComponent = 50011 // el componente está deshabilitado
)

// Mensajes asociados a los códigos anteriores. El trigger de PostgreSQL usa los mismos textos.
const (
	MsgSelfReference     = "el componente no puede ser el mismo artículo padre"
	MsgDisabledComponent = "el componente está deshabilitado"
)
