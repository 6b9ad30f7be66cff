package bom

// AckValue valor devuelto por el almacenamiento cuando el acuse es explícito.
type AckValue struct {
	BOMID           int64
	ComponentItemID int64 // para REPLACE_COMPONENT: componente que quedó en la línea
	Msg             string
}

// Ack acuse de una mutación: Acknowledged(valor) o Ambiguous. Ambiguous significa que
// el almacenamiento no reportó error pero tampoco devolvió valor; quien necesite
// certeza debe releer el estado.
type Ack struct {
	value        AckValue
	acknowledged bool
}

// Acknowledged construye un acuse explícito.
func Acknowledged(v AckValue) Ack { return Ack{value: v, acknowledged: true} }

// Ambiguous construye un acuse sin valor.
func Ambiguous() Ack { return Ack{} }

// Value devuelve el valor y si el acuse fue explícito.
func (a Ack) Value() (AckValue, bool) { return a.value, a.acknowledged }
