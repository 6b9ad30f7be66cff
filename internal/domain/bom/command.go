package bom

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// Mutation comando de mutación estructural. La interfaz está sellada: solo los tipos de
// este paquete la implementan, cada uno con los campos que su acción necesita.
type Mutation interface {
	Action() Action
	Validate() error
	mutation()
}

// Header campos de cabecera usados por ADD, UPDATE y COPY. Los importes nil no se
// enviaron: en UPDATE conservan el valor guardado y al crear valen cero.
type Header struct {
	Code        string
	Description string
	Version     int // 0 = asignar automáticamente
	UoM         string
	Status      string
	UnitCost    *decimal.Decimal
	TotalCost   *decimal.Decimal
	Price       *decimal.Decimal
	LotSize     *decimal.Decimal
}

// Amount devuelve un importe opcional con valor d.
func Amount(d decimal.Decimal) *decimal.Decimal { return &d }

// AmountOr devuelve *p, o def si p es nil.
func AmountOr(p *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if p == nil {
		return def
	}
	return *p
}

// TemporaryComponent datos mínimos para crear un componente temporal.
type TemporaryComponent struct {
	Description string
	Nature      string
	BaseUoM     string
	CodePrefix  string // opcional; vacío = prefijo por defecto
}

func (t TemporaryComponent) validate(field string) error {
	if strings.TrimSpace(t.Description) == "" {
		return domain.Invalid(field+".description", "requerido")
	}
	if !entity.ValidNature(t.Nature) {
		return domain.Invalid(field+".nature", "naturaleza no válida: "+t.Nature)
	}
	if strings.TrimSpace(t.BaseUoM) == "" {
		return domain.Invalid(field+".baseUoM", "requerido")
	}
	return nil
}

// ComponentRef identifica el artículo componente: exactamente uno de ItemID, Code o NewTemporary.
type ComponentRef struct {
	ItemID       int64
	Code         string
	NewTemporary *TemporaryComponent
}

// Resolved indica si la referencia ya apunta a un artículo concreto.
func (r ComponentRef) Resolved() bool { return r.ItemID > 0 }

func (r ComponentRef) validate(field string) error {
	set := 0
	if r.ItemID > 0 {
		set++
	}
	if strings.TrimSpace(r.Code) != "" {
		set++
	}
	if r.NewTemporary != nil {
		set++
		if err := r.NewTemporary.validate(field + ".newTemporary"); err != nil {
			return err
		}
	}
	switch set {
	case 0:
		return domain.Invalid(field, "se requiere id, código o creación de componente temporal")
	case 1:
		return nil
	}
	return domain.Invalid(field, "id, código y componente temporal son excluyentes")
}

// ComponentLine datos de la línea de componente.
type ComponentLine struct {
	ComponentType     string
	Quantity          decimal.Decimal
	UoM               string
	UnitCost          decimal.Decimal
	TotalCost         decimal.Decimal // cero = Quantity * UnitCost
	FixedCost         decimal.Decimal
	Notes             string
	Details           string
	ParentComponentID *int64
}

// RoutingData datos de una fase de ciclo.
type RoutingData struct {
	Operation       string
	WorkCenter      string
	ProcessingTime  decimal.Decimal
	SetupTime       decimal.Decimal
	Workers         decimal.Decimal
	SetupWorkers    decimal.Decimal
	Subcontracted   bool
	SupplierCode    string
	SubcontractCost decimal.Decimal
	Notes           string
}

func requireBOM(id int64) error {
	if id <= 0 {
		return domain.Invalid("bomId", "requerido")
	}
	return nil
}

func requireOrdinal(field string, n int) error {
	if n <= 0 {
		return domain.Invalid(field, "debe ser mayor que cero")
	}
	if n > MaxOrdinal {
		return domain.Invalid(field, fmt.Sprintf("no puede superar %d", MaxOrdinal))
	}
	return nil
}

func optionalOrdinal(field string, n *int) error {
	if n == nil {
		return nil
	}
	return requireOrdinal(field, *n)
}

// AddBOM crea una cabecera nueva para TargetItemID.
type AddBOM struct {
	TargetItemID int64
	Header       Header
}

func (AddBOM) Action() Action { return ActionAdd }
func (AddBOM) mutation() {}
func (c AddBOM) Validate() error {
	if c.TargetItemID <= 0 {
		return domain.Invalid("itemId", "requerido")
	}
	return nil
}

// UpdateBOM actualiza los campos de cabecera.
type UpdateBOM struct {
	BOMID  int64
	Header Header
}

func (UpdateBOM) Action() Action { return ActionUpdate }
func (UpdateBOM) mutation() {}
func (c UpdateBOM) Validate() error { return requireBOM(c.BOMID) }

// CopyBOM crea en TargetItemID una distinta nueva copiada de SourceBOMID.
type CopyBOM struct {
	TargetItemID   int64
	SourceBOMID    int64
	Header         Header
	CopyComponents bool
	CopyRouting    bool
}

func (CopyBOM) Action() Action { return ActionCopy }
func (CopyBOM) mutation() {}
func (c CopyBOM) Validate() error {
	if c.TargetItemID <= 0 {
		return domain.Invalid("itemId", "requerido")
	}
	if c.SourceBOMID <= 0 {
		return domain.Invalid("sourceBomId", "requerido")
	}
	return nil
}

// AddComponent agrega una línea. Line nil = siguiente ordinal libre.
type AddComponent struct {
	BOMID     int64
	Line      *int
	Component ComponentRef
	Data      ComponentLine
}

func (AddComponent) Action() Action { return ActionAddComponent }
func (AddComponent) mutation() {}
func (c AddComponent) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	if err := optionalOrdinal("line", c.Line); err != nil {
		return err
	}
	if err := c.Component.validate("component"); err != nil {
		return err
	}
	if !c.Data.Quantity.GreaterThan(decimal.Zero) {
		return domain.Invalid("quantity", "debe ser mayor que cero")
	}
	return nil
}

// UpdateComponent actualiza los datos de la línea Line (el componente no cambia;
// para eso existe ReplaceComponent).
type UpdateComponent struct {
	BOMID int64
	Line  int
	Data  ComponentLine
}

func (UpdateComponent) Action() Action { return ActionUpdateComponent }
func (UpdateComponent) mutation() {}
func (c UpdateComponent) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	if err := requireOrdinal("line", c.Line); err != nil {
		return err
	}
	if c.Data.Quantity.LessThan(decimal.Zero) {
		return domain.Invalid("quantity", "no puede ser negativa")
	}
	return nil
}

// DeleteComponent elimina la línea Line.
type DeleteComponent struct {
	BOMID int64
	Line  int
}

func (DeleteComponent) Action() Action { return ActionDeleteComponent }
func (DeleteComponent) mutation() {}
func (c DeleteComponent) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	return requireOrdinal("line", c.Line)
}

// AddRouting agrega una fase. Step nil = siguiente ordinal libre.
type AddRouting struct {
	BOMID int64
	Step  *int
	Data  RoutingData
}

func (AddRouting) Action() Action { return ActionAddRouting }
func (AddRouting) mutation() {}
func (c AddRouting) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	if err := optionalOrdinal("rtgStep", c.Step); err != nil {
		return err
	}
	if strings.TrimSpace(c.Data.Operation) == "" {
		return domain.Invalid("operation", "requerido")
	}
	return nil
}

// UpdateRouting actualiza la fase Step.
type UpdateRouting struct {
	BOMID int64
	Step  int
	Data  RoutingData
}

func (UpdateRouting) Action() Action { return ActionUpdateRouting }
func (UpdateRouting) mutation() {}
func (c UpdateRouting) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	return requireOrdinal("rtgStep", c.Step)
}

// DeleteRouting elimina la fase Step.
type DeleteRouting struct {
	BOMID int64
	Step  int
}

func (DeleteRouting) Action() Action { return ActionDeleteRouting }
func (DeleteRouting) mutation() {}
func (c DeleteRouting) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	return requireOrdinal("rtgStep", c.Step)
}

// ReorderComponents permuta los números de línea (ver PlanComponentRenumber).
type ReorderComponents struct {
	BOMID int64
	Moves []LineMove
}

func (ReorderComponents) Action() Action { return ActionReorderComponents }
func (ReorderComponents) mutation() {}
func (c ReorderComponents) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	_, err := PlanComponentRenumber(c.Moves)
	return err
}

// ReorderRouting renumera las fases en múltiplos de 10 según el orden recibido.
type ReorderRouting struct {
	BOMID int64
	Moves []StepMove
}

func (ReorderRouting) Action() Action { return ActionReorderRouting }
func (ReorderRouting) mutation() {}
func (c ReorderRouting) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	_, err := PlanRoutingRenumber(c.Moves)
	return err
}

// ReplaceComponent sustituye el componente de la línea Line por un artículo existente.
type ReplaceComponent struct {
	BOMID     int64
	Line      int
	Component ComponentRef
}

func (ReplaceComponent) Action() Action { return ActionReplaceComponent }
func (ReplaceComponent) mutation() {}
func (c ReplaceComponent) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	if err := requireOrdinal("line", c.Line); err != nil {
		return err
	}
	if c.Component.NewTemporary != nil {
		return domain.Invalid("component", "use REPLACE_WITH_NEW_COMPONENT para crear un componente temporal")
	}
	return c.Component.validate("component")
}

// ReplaceWithNewComponent crea un componente temporal y lo coloca en la línea Line.
// Con CopyBOM la distinta del componente sustituido se copia al nuevo componente.
type ReplaceWithNewComponent struct {
	BOMID        int64
	Line         int
	NewComponent TemporaryComponent
	CopyBOM      bool
}

func (ReplaceWithNewComponent) Action() Action { return ActionReplaceWithNewComponent }
func (ReplaceWithNewComponent) mutation() {}
func (c ReplaceWithNewComponent) Validate() error {
	if err := requireBOM(c.BOMID); err != nil {
		return err
	}
	if err := requireOrdinal("line", c.Line); err != nil {
		return err
	}
	return c.NewComponent.validate("newComponent")
}

// MutationResult resultado de una mutación confirmada.
type MutationResult struct {
	BOMID                int64
	Msg                  string
	CreatedComponentCode string
}
