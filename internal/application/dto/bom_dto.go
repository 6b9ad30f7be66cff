package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
)

// BOMRequest sobre {action, bomData} de mutaciones y lecturas de distintas.
type BOMRequest struct {
	Action  string  `json:"action"`
	BOMData BOMData `json:"bomData"`
}

// BOMData campos de todas las acciones; cada acción lee solo los suyos.
type BOMData struct {
	ID          int64 `json:"id"`
	ItemID      int64 `json:"itemId"`
	SourceBOMID int64 `json:"sourceBomId"`
	Version     *int  `json:"version,omitempty"`

	Code        string          `json:"code"`
	Description string          `json:"description"`
	UoM         string          `json:"uom"`
	Status      string          `json:"status"`
	UnitCost    *decimal.Decimal `json:"unitCost,omitempty"`
	TotalCost   *decimal.Decimal `json:"totalCost,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	LotSize     *decimal.Decimal `json:"lotSize,omitempty"`

	CopyComponents bool `json:"copyComponents"`
	CopyRouting    bool `json:"copyRouting"`

	Line          *int              `json:"line,omitempty"`
	Component     *ComponentRefDTO  `json:"component,omitempty"`
	ComponentData *ComponentLineDTO `json:"componentData,omitempty"`

	RtgStep *int        `json:"rtgStep,omitempty"`
	Routing *RoutingDTO `json:"routing,omitempty"`

	Lines []LineMoveDTO `json:"lines,omitempty"`

	NewComponent *TemporaryComponentDTO `json:"newComponent,omitempty"`
	CopyBOM      bool                   `json:"copyBom"`

	MaxLevel        int  `json:"maxLevel"`
	ExpandPhantoms  bool `json:"expandPhantoms"`
	IncludeDisabled bool `json:"includeDisabled"`
	IncludeRouting  bool `json:"includeRouting"`
}

// TemporaryComponentDTO datos para crear un componente temporal.
type TemporaryComponentDTO struct {
	Description string `json:"description"`
	Nature      string `json:"nature"`
	BaseUoM     string `json:"baseUom"`
	CodePrefix  string `json:"codePrefix,omitempty"`
}

func (t TemporaryComponentDTO) toDomain() bom.TemporaryComponent {
	return bom.TemporaryComponent{Description: t.Description, Nature: t.Nature, BaseUoM: t.BaseUoM, CodePrefix: t.CodePrefix}
}

// ComponentRefDTO artículo componente: id, código o creación de temporal.
type ComponentRefDTO struct {
	ItemID       int64                  `json:"id"`
	Code         string                 `json:"code"`
	NewTemporary *TemporaryComponentDTO `json:"newTemporary,omitempty"`
}

func (r *ComponentRefDTO) toDomain() bom.ComponentRef {
	if r == nil {
		return bom.ComponentRef{}
	}
	out := bom.ComponentRef{ItemID: r.ItemID, Code: r.Code}
	if r.NewTemporary != nil {
		t := r.NewTemporary.toDomain()
		out.NewTemporary = &t
	}
	return out
}

// ComponentLineDTO datos de la línea de componente.
type ComponentLineDTO struct {
	ComponentType     string          `json:"componentType"`
	Quantity          decimal.Decimal `json:"quantity"`
	UoM               string          `json:"uom"`
	UnitCost          decimal.Decimal `json:"unitCost"`
	TotalCost         decimal.Decimal `json:"totalCost"`
	FixedCost         decimal.Decimal `json:"fixedCost"`
	Notes             string          `json:"notes"`
	Details           string          `json:"details"`
	ParentComponentID *int64          `json:"parentComponentId,omitempty"`
}

func (d *ComponentLineDTO) toDomain() bom.ComponentLine {
	if d == nil {
		return bom.ComponentLine{}
	}
	return bom.ComponentLine{
		ComponentType:     d.ComponentType,
		Quantity:          d.Quantity,
		UoM:               d.UoM,
		UnitCost:          d.UnitCost,
		TotalCost:         d.TotalCost,
		FixedCost:         d.FixedCost,
		Notes:             d.Notes,
		Details:           d.Details,
		ParentComponentID: d.ParentComponentID,
	}
}

// RoutingDTO datos de una fase de ciclo.
type RoutingDTO struct {
	Operation       string          `json:"operation"`
	WorkCenter      string          `json:"workCenter"`
	ProcessingTime  decimal.Decimal `json:"processingTime"`
	SetupTime       decimal.Decimal `json:"setupTime"`
	Workers         decimal.Decimal `json:"workers"`
	SetupWorkers    decimal.Decimal `json:"setupWorkers"`
	Subcontracted   bool            `json:"subcontracted"`
	SupplierCode    string          `json:"supplierCode"`
	SubcontractCost decimal.Decimal `json:"subcontractCost"`
	Notes           string          `json:"notes"`
}

func (r *RoutingDTO) toDomain() bom.RoutingData {
	if r == nil {
		return bom.RoutingData{}
	}
	return bom.RoutingData{
		Operation:       r.Operation,
		WorkCenter:      r.WorkCenter,
		ProcessingTime:  r.ProcessingTime,
		SetupTime:       r.SetupTime,
		Workers:         r.Workers,
		SetupWorkers:    r.SetupWorkers,
		Subcontracted:   r.Subcontracted,
		SupplierCode:    r.SupplierCode,
		SubcontractCost: r.SubcontractCost,
		Notes:           r.Notes,
	}
}

// LineMoveDTO entrada de reordenamiento. Además de {current, desired} acepta los nombres
// del cliente ERP: {line, newOrder} para componentes, {rtgStep, newOrder} para el ciclo y
// {currentLine|currentStep, desiredLine|desiredStep}.
type LineMoveDTO struct {
	Current int `json:"current"`
	Desired int `json:"desired"`
}

type lineMoveWire struct {
	Current     *int `json:"current"`
	Line        *int `json:"line"`
	RtgStep     *int `json:"rtgStep"`
	CurrentLine *int `json:"currentLine"`
	CurrentStep *int `json:"currentStep"`
	Desired     *int `json:"desired"`
	NewOrder    *int `json:"newOrder"`
	DesiredLine *int `json:"desiredLine"`
	DesiredStep *int `json:"desiredStep"`
}

// UnmarshalJSON toma el primer nombre presente de cada lado; un lado ausente queda en 0
// y lo rechaza la validación del plan.
func (m *LineMoveDTO) UnmarshalJSON(b []byte) error {
	var w lineMoveWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	m.Current = firstSet(w.Current, w.Line, w.RtgStep, w.CurrentLine, w.CurrentStep)
	m.Desired = firstSet(w.Desired, w.NewOrder, w.DesiredLine, w.DesiredStep)
	return nil
}

func firstSet(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func (d BOMData) header() bom.Header {
	v := 0
	if d.Version != nil {
		v = *d.Version
	}
	return bom.Header{
		Code:        d.Code,
		Description: d.Description,
		Version:     v,
		UoM:         d.UoM,
		Status:      d.Status,
		UnitCost:    d.UnitCost,
		TotalCost:   d.TotalCost,
		Price:       d.Price,
		LotSize:     d.LotSize,
	}
}

func ordinal(field string, n *int) (int, error) {
	if n == nil {
		return 0, domain.Invalid(field, "requerido")
	}
	return *n, nil
}

// ToMutation convierte el sobre en el comando tipado. No valida los campos del comando:
// eso lo hace Validate.
func (r BOMRequest) ToMutation() (bom.Mutation, error) {
	action, err := bom.ParseAction(r.Action)
	if err != nil {
		return nil, err
	}
	d := r.BOMData
	switch action {
	case bom.ActionAdd:
		return bom.AddBOM{TargetItemID: d.ItemID, Header: d.header()}, nil
	case bom.ActionUpdate:
		return bom.UpdateBOM{BOMID: d.ID, Header: d.header()}, nil
	case bom.ActionCopy:
		return bom.CopyBOM{TargetItemID: d.ItemID, SourceBOMID: d.SourceBOMID, Header: d.header(),
			CopyComponents: d.CopyComponents, CopyRouting: d.CopyRouting}, nil
	case bom.ActionAddComponent:
		return bom.AddComponent{BOMID: d.ID, Line: d.Line, Component: d.Component.toDomain(), Data: d.ComponentData.toDomain()}, nil
	case bom.ActionUpdateComponent:
		line, err := ordinal("line", d.Line)
		if err != nil {
			return nil, err
		}
		return bom.UpdateComponent{BOMID: d.ID, Line: line, Data: d.ComponentData.toDomain()}, nil
	case bom.ActionDeleteComponent:
		line, err := ordinal("line", d.Line)
		if err != nil {
			return nil, err
		}
		return bom.DeleteComponent{BOMID: d.ID, Line: line}, nil
	case bom.ActionAddRouting:
		return bom.AddRouting{BOMID: d.ID, Step: d.RtgStep, Data: d.Routing.toDomain()}, nil
	case bom.ActionUpdateRouting:
		step, err := ordinal("rtgStep", d.RtgStep)
		if err != nil {
			return nil, err
		}
		return bom.UpdateRouting{BOMID: d.ID, Step: step, Data: d.Routing.toDomain()}, nil
	case bom.ActionDeleteRouting:
		step, err := ordinal("rtgStep", d.RtgStep)
		if err != nil {
			return nil, err
		}
		return bom.DeleteRouting{BOMID: d.ID, Step: step}, nil
	case bom.ActionReorderComponents:
		moves := make([]bom.LineMove, len(d.Lines))
		for i, m := range d.Lines {
			moves[i] = bom.LineMove{Current: m.Current, Desired: m.Desired}
		}
		return bom.ReorderComponents{BOMID: d.ID, Moves: moves}, nil
	case bom.ActionReorderRouting:
		moves := make([]bom.StepMove, len(d.Lines))
		for i, m := range d.Lines {
			moves[i] = bom.StepMove{Current: m.Current, Desired: m.Desired}
		}
		return bom.ReorderRouting{BOMID: d.ID, Moves: moves}, nil
	case bom.ActionReplaceComponent:
		line, err := ordinal("line", d.Line)
		if err != nil {
			return nil, err
		}
		return bom.ReplaceComponent{BOMID: d.ID, Line: line, Component: d.Component.toDomain()}, nil
	case bom.ActionReplaceWithNewComponent:
		line, err := ordinal("line", d.Line)
		if err != nil {
			return nil, err
		}
		if d.NewComponent == nil {
			return nil, domain.Invalid("newComponent", "requerido")
		}
		return bom.ReplaceWithNewComponent{BOMID: d.ID, Line: line, NewComponent: d.NewComponent.toDomain(), CopyBOM: d.CopyBOM}, nil
	}
	return nil, domain.Invalid("action", "acción no soportada: "+r.Action)
}

// ToReadQuery convierte el sobre en una consulta de lectura para companyID.
func (r BOMRequest) ToReadQuery(companyID int) (bom.ReadQuery, error) {
	action, err := bom.ParseReadAction(r.Action)
	if err != nil {
		return bom.ReadQuery{}, err
	}
	d := r.BOMData
	return bom.ReadQuery{
		Action:    action,
		CompanyID: companyID,
		Ref:       bom.Ref{BOMID: d.ID, ItemID: d.ItemID, Version: d.Version},
		Options: bom.MultilevelOptions{
			MaxLevel:        d.MaxLevel,
			ExpandPhantoms:  d.ExpandPhantoms,
			IncludeDisabled: d.IncludeDisabled,
			IncludeRouting:  d.IncludeRouting,
		},
	}, nil
}

// MutationResponse {success:1, bomId, msg, createdComponentCode?}.
type MutationResponse struct {
	Success              int    `json:"success"`
	BOMID                int64  `json:"bomId"`
	Message              string `json:"msg"`
	CreatedComponentCode string `json:"createdComponentCode,omitempty"`
}

// ReorderResponse resultado de REORDER_COMPONENTS y REORDER_ROUTING.
type ReorderResponse struct {
	MutationResponse
	Moved   int         `json:"moved"`
	Missing int         `json:"missing"`
	Final   map[int]int `json:"final"`
}

// ReplaceResponse resultado de REPLACE_COMPONENT y REPLACE_WITH_NEW_COMPONENT.
type ReplaceResponse struct {
	MutationResponse
	Line             int   `json:"line"`
	ComponentItemID  int64 `json:"componentItemId"`
	VerifiedByReread bool  `json:"verifiedByReread"`
	CopiedBOMID      int64 `json:"copiedBomId,omitempty"`
}

// CopyFromItemRequest cuerpo de la copia entre artículos o desde el ERP.
type CopyFromItemRequest struct {
	TargetItemID    int64  `json:"targetItemId"`
	SourceItemID    int64  `json:"sourceItemId"`
	SourceCompanyID int    `json:"sourceCompanyId"`
	SourceType      string `json:"sourceType"` // temporary | defined
}

// CopyFromItemResponse success 0 con msg es un resultado descriptivo.
type CopyFromItemResponse struct {
	Success      int      `json:"success"`
	Message      string   `json:"msg,omitempty"`
	BOMID        int64    `json:"bomId,omitempty"`
	Added        int      `json:"added"`
	Skipped      int      `json:"skipped"`
	CreatedItems []string `json:"createdItems,omitempty"`
}
