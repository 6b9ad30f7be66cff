package bom

import (
	"fmt"

	"github.com/jhoicas/bom-api/internal/domain"
)

// TempOrdinalBase base de los ordinales temporales de la fase 1. Las líneas y fases
// reales nunca llegan aquí: MaxOrdinal es el mayor ordinal aceptado.
const (
	TempOrdinalBase = 1_000_000
	MaxOrdinal      = TempOrdinalBase - 1
)

// RoutingStepGap separación entre fases tras reordenar el ciclo.
const RoutingStepGap = 10

// LineMove mueve la línea Current a Desired.
type LineMove struct {
	Current int
	Desired int
}

// StepMove entrada de reordenamiento del ciclo. Desired se ignora: la posición en la
// lista determina el número final.
type StepMove struct {
	Current int
	Desired int
}

// Renumber cambio de ordinal From -> To.
type Renumber struct {
	From int
	To   int
}

// Plan renumeración en dos fases. Phase1 mueve cada ordinal actual a un temporal
// disjunto de los conjuntos actual y deseado; Phase2 mueve cada temporal a su destino.
type Plan struct {
	Phase1 []Renumber
	Phase2 []Renumber
}

// Final devuelve el mapa ordinal actual -> ordinal final.
func (p Plan) Final() map[int]int {
	out := make(map[int]int, len(p.Phase1))
	for i, r := range p.Phase1 {
		out[r.From] = p.Phase2[i].To
	}
	return out
}

// PlanComponentRenumber arma el plan para líneas de componente: el destino es el Desired
// recibido.
func PlanComponentRenumber(moves []LineMove) (Plan, error) {
	if len(moves) == 0 {
		return Plan{}, domain.Invalid("lines", "lista vacía")
	}
	current := make([]int, len(moves))
	desired := make([]int, len(moves))
	for i, m := range moves {
		current[i] = m.Current
		desired[i] = m.Desired
	}
	if err := checkOrdinals("lines", current, desired); err != nil {
		return Plan{}, err
	}
	return buildPlan(current, desired), nil
}

// PlanRoutingRenumber arma el plan para el ciclo: la entrada i termina en (i+1)*10,
// sin importar el Desired ni los valores originales.
func PlanRoutingRenumber(moves []StepMove) (Plan, error) {
	if len(moves) == 0 {
		return Plan{}, domain.Invalid("steps", "lista vacía")
	}
	current := make([]int, len(moves))
	final := make([]int, len(moves))
	for i, m := range moves {
		current[i] = m.Current
		final[i] = (i + 1) * RoutingStepGap
	}
	if err := checkOrdinals("steps", current, final); err != nil {
		return Plan{}, err
	}
	return buildPlan(current, final), nil
}

func checkOrdinals(field string, current, final []int) error {
	seenCur := make(map[int]struct{}, len(current))
	seenFin := make(map[int]struct{}, len(final))
	for i := range current {
		if current[i] <= 0 || final[i] <= 0 || current[i] > MaxOrdinal || final[i] > MaxOrdinal {
			return domain.Invalid(field, fmt.Sprintf("ordinal no válido en la posición %d", i))
		}
		if _, dup := seenCur[current[i]]; dup {
			return domain.Invalid(field, fmt.Sprintf("ordinal actual %d repetido", current[i]))
		}
		if _, dup := seenFin[final[i]]; dup {
			return domain.Invalid(field, fmt.Sprintf("ordinal destino %d repetido", final[i]))
		}
		seenCur[current[i]] = struct{}{}
		seenFin[final[i]] = struct{}{}
	}
	return nil
}

func buildPlan(current, final []int) Plan {
	p := Plan{
		Phase1: make([]Renumber, len(current)),
		Phase2: make([]Renumber, len(current)),
	}
	for i := range current {
		tmp := TempOrdinalBase + i
		p.Phase1[i] = Renumber{From: current[i], To: tmp}
		p.Phase2[i] = Renumber{From: tmp, To: final[i]}
	}
	return p
}
