// Package bom contiene el modelo de comandos de la distinta base (acciones cerradas,
// validación previa a cualquier I/O) y los algoritmos puros del motor: planes de
// renumeración en dos fases y explosión multinivel.
package bom

import (
	"strings"

	"github.com/jhoicas/bom-api/internal/domain"
)

// Action etiqueta de una mutación estructural. Conjunto cerrado.
type Action string

const (
	ActionAdd                     Action = "ADD"
	ActionUpdate                  Action = "UPDATE"
	ActionCopy                    Action = "COPY"
	ActionAddComponent            Action = "ADD_COMPONENT"
	ActionUpdateComponent         Action = "UPDATE_COMPONENT"
	ActionDeleteComponent         Action = "DELETE_COMPONENT"
	ActionAddRouting              Action = "ADD_ROUTING"
	ActionUpdateRouting           Action = "UPDATE_ROUTING"
	ActionDeleteRouting           Action = "DELETE_ROUTING"
	ActionReorderComponents       Action = "REORDER_COMPONENTS"
	ActionReorderRouting          Action = "REORDER_ROUTING"
	ActionReplaceComponent        Action = "REPLACE_COMPONENT"
	ActionReplaceWithNewComponent Action = "REPLACE_WITH_NEW_COMPONENT"
)

var mutationActions = map[Action]struct{}{
	ActionAdd: {}, ActionUpdate: {}, ActionCopy: {},
	ActionAddComponent: {}, ActionUpdateComponent: {}, ActionDeleteComponent: {},
	ActionAddRouting: {}, ActionUpdateRouting: {}, ActionDeleteRouting: {},
	ActionReorderComponents: {}, ActionReorderRouting: {},
	ActionReplaceComponent: {}, ActionReplaceWithNewComponent: {},
}

// ParseAction valida la etiqueta recibida. Una acción desconocida es un error del caller.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := mutationActions[a]; !ok {
		return "", domain.Invalid("action", "acción no soportada: "+s)
	}
	return a, nil
}

// ReadAction etiqueta de una lectura. Conjunto cerrado.
type ReadAction string

const (
	ReadHeader     ReadAction = "GET_BOM"
	ReadComponents ReadAction = "GET_BOM_COMPONENTS"
	ReadRouting    ReadAction = "GET_BOM_ROUTING"
	ReadFull       ReadAction = "GET_BOM_FULL"
	ReadMultilevel ReadAction = "GET_BOM_MULTILEVEL"
)

// ParseReadAction valida la etiqueta de lectura.
func ParseReadAction(s string) (ReadAction, error) {
	a := ReadAction(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case ReadHeader, ReadComponents, ReadRouting, ReadFull, ReadMultilevel:
		return a, nil
	}
	return "", domain.Invalid("action", "lectura no soportada: "+s)
}
