package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// BOMResponse cabecera de distinta.
type BOMResponse struct {
	ID          int64           `json:"id"`
	CompanyID   int             `json:"companyId"`
	ItemID      int64           `json:"itemId"`
	ItemCode    string          `json:"itemCode,omitempty"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Version     int             `json:"version"`
	UoM         string          `json:"uom"`
	Status      string          `json:"status"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	TotalCost   decimal.Decimal `json:"totalCost"`
	Price       decimal.Decimal `json:"price"`
	LotSize     decimal.Decimal `json:"lotSize"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ComponentResponse línea de componente.
type ComponentResponse struct {
	ID                   int64           `json:"id"`
	Line                 int             `json:"line"`
	ComponentItemID      int64           `json:"componentItemId"`
	ComponentCode        string          `json:"componentCode"`
	ComponentDescription string          `json:"componentDescription"`
	ComponentType        string          `json:"componentType"`
	Quantity             decimal.Decimal `json:"quantity"`
	UoM                  string          `json:"uom"`
	UnitCost             decimal.Decimal `json:"unitCost"`
	TotalCost            decimal.Decimal `json:"totalCost"`
	FixedCost            decimal.Decimal `json:"fixedCost"`
	Notes                string          `json:"notes,omitempty"`
	Details              string          `json:"details,omitempty"`
	ParentComponentID    *int64          `json:"parentComponentId,omitempty"`
}

// RoutingResponse fase de ciclo.
type RoutingResponse struct {
	ID              int64           `json:"id"`
	RtgStep         int             `json:"rtgStep"`
	Operation       string          `json:"operation"`
	WorkCenter      string          `json:"workCenter"`
	ProcessingTime  decimal.Decimal `json:"processingTime"`
	SetupTime       decimal.Decimal `json:"setupTime"`
	Workers         decimal.Decimal `json:"workers"`
	SetupWorkers    decimal.Decimal `json:"setupWorkers"`
	Subcontracted   bool            `json:"subcontracted"`
	SupplierCode    string          `json:"supplierCode,omitempty"`
	SubcontractCost decimal.Decimal `json:"subcontractCost"`
	Notes           string          `json:"notes,omitempty"`
}

// VersionResponse entrada del listado de versiones.
type VersionResponse struct {
	BOMID     int64     `json:"bomId"`
	Version   int       `json:"version"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// HeaderResult GET_BOM.
type HeaderResult struct {
	Success int         `json:"success"`
	BOM     BOMResponse `json:"bom"`
}

// ComponentsResult GET_BOM_COMPONENTS.
type ComponentsResult struct {
	Success    int                 `json:"success"`
	Components []ComponentResponse `json:"components"`
}

// RoutingResult GET_BOM_ROUTING.
type RoutingResult struct {
	Success int               `json:"success"`
	Routing []RoutingResponse `json:"routing"`
}

// FullResult GET_BOM_FULL.
type FullResult struct {
	Success    int                 `json:"success"`
	BOM        BOMResponse         `json:"bom"`
	Components []ComponentResponse `json:"components"`
	Routing    []RoutingResponse   `json:"routing"`
	Versions   []VersionResponse   `json:"versions"`
}

// NodeResponse nodo del árbol multinivel.
type NodeResponse struct {
	Level            int               `json:"level"`
	Component        ComponentResponse `json:"component"`
	ExtendedQuantity decimal.Decimal   `json:"extendedQuantity"`
	SubBOMID         int64             `json:"subBomId,omitempty"`
	Routing          []RoutingResponse `json:"routing,omitempty"`
	Children         []NodeResponse    `json:"children,omitempty"`
	Cyclic           bool              `json:"cyclic,omitempty"`
	Truncated        bool              `json:"truncated,omitempty"`
}

// MultilevelResult GET_BOM_MULTILEVEL.
type MultilevelResult struct {
	Success    int               `json:"success"`
	BOM        BOMResponse       `json:"bom"`
	Routing    []RoutingResponse `json:"routing,omitempty"`
	Components []NodeResponse    `json:"components"`
	Depth      int               `json:"depth"`
}

// NewBOMResponse mapea la cabecera.
func NewBOMResponse(h entity.BOM) BOMResponse {
	return BOMResponse{
		ID: h.ID, CompanyID: h.CompanyID, ItemID: h.ItemID, ItemCode: h.ItemCode,
		Code: h.Code, Description: h.Description, Version: h.Version, UoM: h.UoM, Status: h.Status,
		UnitCost: h.UnitCost, TotalCost: h.TotalCost, Price: h.Price, LotSize: h.LotSize,
		CreatedBy: h.CreatedBy, CreatedAt: h.CreatedAt, UpdatedAt: h.UpdatedAt,
	}
}

// NewComponentResponse mapea una línea.
func NewComponentResponse(c entity.BOMComponent) ComponentResponse {
	return ComponentResponse{
		ID: c.ID, Line: c.Line, ComponentItemID: c.ComponentItemID,
		ComponentCode: c.ComponentCode, ComponentDescription: c.ComponentDescription,
		ComponentType: c.ComponentType, Quantity: c.Quantity, UoM: c.UoM,
		UnitCost: c.UnitCost, TotalCost: c.TotalCost, FixedCost: c.FixedCost,
		Notes: c.Notes, Details: c.Details, ParentComponentID: c.ParentComponentID,
	}
}

// NewRoutingResponse mapea una fase.
func NewRoutingResponse(rt entity.BOMRouting) RoutingResponse {
	return RoutingResponse{
		ID: rt.ID, RtgStep: rt.RtgStep, Operation: rt.Operation, WorkCenter: rt.WorkCenter,
		ProcessingTime: rt.ProcessingTime, SetupTime: rt.SetupTime,
		Workers: rt.Workers, SetupWorkers: rt.SetupWorkers,
		Subcontracted: rt.Subcontracted, SupplierCode: rt.SupplierCode,
		SubcontractCost: rt.SubcontractCost, Notes: rt.Notes,
	}
}

// NewComponentList mapea las líneas; nunca devuelve nil.
func NewComponentList(rows []entity.BOMComponent) []ComponentResponse {
	out := make([]ComponentResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, NewComponentResponse(c))
	}
	return out
}

// NewRoutingList mapea las fases; nunca devuelve nil.
func NewRoutingList(rows []entity.BOMRouting) []RoutingResponse {
	out := make([]RoutingResponse, 0, len(rows))
	for _, rt := range rows {
		out = append(out, NewRoutingResponse(rt))
	}
	return out
}

// NewFullResult mapea GET_BOM_FULL.
func NewFullResult(f *bom.Full) FullResult {
	versions := make([]VersionResponse, 0, len(f.Versions))
	for _, v := range f.Versions {
		versions = append(versions, VersionResponse{BOMID: v.BOMID, Version: v.Version, Status: v.Status, CreatedAt: v.CreatedAt})
	}
	return FullResult{
		Success:    Succeeded,
		BOM:        NewBOMResponse(f.Header),
		Components: NewComponentList(f.Components),
		Routing:    NewRoutingList(f.Routing),
		Versions:   versions,
	}
}

func newNodes(nodes []*bom.Node) []NodeResponse {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		nr := NodeResponse{
			Level:            n.Level,
			Component:        NewComponentResponse(n.Component),
			ExtendedQuantity: n.ExtendedQuantity,
			SubBOMID:         n.SubBOMID,
			Children:         newNodes(n.Children),
			Cyclic:           n.Cyclic,
			Truncated:        n.Truncated,
		}
		if len(n.Routing) > 0 {
			nr.Routing = NewRoutingList(n.Routing)
		}
		out = append(out, nr)
	}
	return out
}

// NewMultilevelResult mapea GET_BOM_MULTILEVEL.
func NewMultilevelResult(m *bom.Multilevel) MultilevelResult {
	res := MultilevelResult{
		Success:    Succeeded,
		BOM:        NewBOMResponse(m.Header),
		Components: newNodes(m.Components),
		Depth:      m.Depth,
	}
	if res.Components == nil {
		res.Components = []NodeResponse{}
	}
	if len(m.Routing) > 0 {
		res.Routing = NewRoutingList(m.Routing)
	}
	return res
}
