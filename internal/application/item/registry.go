// Package item implementa el registro de artículos: identidad temporal frente al ERP,
// creación de artículos temporales, guardia de deshabilitación e importación desde el ERP.
package item

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

// DefaultTempPrefix prefijo de los códigos de artículos temporales.
const DefaultTempPrefix = "TMP-"

// Registry opera sobre un ItemRepository; para trabajar dentro de una transacción se
// construye con el repositorio de la transacción.
type Registry struct {
	items  repository.ItemRepository
	prefix string
	now    func() time.Time
}

// NewRegistry construye el registro. prefix vacío = DefaultTempPrefix.
func NewRegistry(items repository.ItemRepository, prefix string) *Registry {
	if prefix == "" {
		prefix = DefaultTempPrefix
	}
	return &Registry{items: items, prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput datos de alta de un artículo.
type CreateInput struct {
	Code        string
	Description string
	Diameter    decimal.Decimal
	Width       decimal.Decimal
	Height      decimal.Decimal
	Length      decimal.Decimal
	Nature      string
	BaseUoM     string
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return domain.Invalid("code", "requerido")
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.Invalid("description", "requerido")
	}
	if !entity.ValidNature(in.Nature) {
		return domain.Invalid("nature", "naturaleza no válida: "+in.Nature)
	}
	return nil
}

// Create da de alta un artículo local (no vinculado al ERP).
func (r *Registry) Create(ctx context.Context, companyID int, userID string, in CreateInput) (*entity.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	it := &entity.Item{
		CompanyID:   companyID,
		Code:        strings.TrimSpace(in.Code),
		Description: strings.TrimSpace(in.Description),
		Diameter:    in.Diameter,
		Width:       in.Width,
		Height:      in.Height,
		Length:      in.Length,
		Nature:      in.Nature,
		BaseUoM:     in.BaseUoM,
		Status:      entity.ItemStatusActive,
		CreatedBy:   userID,
	}
	if err := r.items.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateInput campos editables; nil = sin cambio.
type UpdateInput struct {
	Description *string
	Diameter    *decimal.Decimal
	Width       *decimal.Decimal
	Height      *decimal.Decimal
	Length      *decimal.Decimal
	Nature      *string
	BaseUoM     *string
}

// Update modifica un artículo activo. Los artículos vinculados al ERP solo cambian vía importación.
func (r *Registry) Update(ctx context.Context, companyID int, id int64, in UpdateInput) (*entity.Item, error) {
	it, err := r.items.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if it.Disabled {
		return nil, fmt.Errorf("artículo %d deshabilitado: %w", id, domain.ErrConflict)
	}
	if it.ERPLinked {
		return nil, fmt.Errorf("artículo %d vinculado al ERP: %w", id, domain.ErrForbidden)
	}
	if in.Description != nil {
		it.Description = *in.Description
	}
	if in.Diameter != nil {
		it.Diameter = *in.Diameter
	}
	if in.Width != nil {
		it.Width = *in.Width
	}
	if in.Height != nil {
		it.Height = *in.Height
	}
	if in.Length != nil {
		it.Length = *in.Length
	}
	if in.Nature != nil {
		if !entity.ValidNature(*in.Nature) {
			return nil, domain.Invalid("nature", "naturaleza no válida: "+*in.Nature)
		}
		it.Nature = *in.Nature
	}
	if in.BaseUoM != nil {
		it.BaseUoM = *in.BaseUoM
	}
	if err := r.items.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Get devuelve el artículo por id.
func (r *Registry) Get(ctx context.Context, companyID int, id int64) (*entity.Item, error) {
	return r.items.GetByID(ctx, companyID, id)
}

// FindByCode busca por código prefiriendo el artículo vinculado al ERP.
func (r *Registry) FindByCode(ctx context.Context, companyID int, code string) (*entity.Item, error) {
	return r.items.FindByCode(ctx, companyID, strings.TrimSpace(code))
}

// List artículos de la empresa paginados.
func (r *Registry) List(ctx context.Context, companyID, limit, offset int) ([]*entity.Item, error) {
	return r.items.ListByCompany(ctx, companyID, limit, offset)
}

// ResolveForComponent resuelve la referencia de un componente a un artículo concreto.
// minted indica que se creó un artículo temporal.
func (r *Registry) ResolveForComponent(ctx context.Context, companyID int, userID string, ref bom.ComponentRef) (it *entity.Item, minted bool, err error) {
	switch {
	case ref.ItemID > 0:
		it, err = r.items.GetByID(ctx, companyID, ref.ItemID)
		return it, false, err
	case strings.TrimSpace(ref.Code) != "":
		it, err = r.FindByCode(ctx, companyID, ref.Code)
		return it, false, err
	case ref.NewTemporary != nil:
		it, err = r.MintTemporary(ctx, companyID, userID, *ref.NewTemporary)
		return it, err == nil, err
	}
	return nil, false, domain.Invalid("component", "se requiere id, código o creación de componente temporal")
}

// TemporaryCode arma el código <prefijo><secuencial de 6 dígitos>.
func TemporaryCode(prefix string, seq int) string {
	return fmt.Sprintf("%s%06d", prefix, seq)
}

// MintTemporary crea un artículo temporal con código generado.
func (r *Registry) MintTemporary(ctx context.Context, companyID int, userID string, spec bom.TemporaryComponent) (*entity.Item, error) {
	prefix := spec.CodePrefix
	if prefix == "" {
		prefix = r.prefix
	}
	seq, err := r.items.NextTemporarySeq(ctx, companyID, prefix)
	if err != nil {
		return nil, fmt.Errorf("secuencial temporal: %w", err)
	}
	it := &entity.Item{
		CompanyID:   companyID,
		Code:        TemporaryCode(prefix, seq),
		Description: spec.Description,
		Nature:      spec.Nature,
		BaseUoM:     spec.BaseUoM,
		Status:      entity.ItemStatusActive,
		CreatedBy:   userID,
	}
	if err := r.items.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// MintFromERPInput arma el espejo local de un artículo ERP sin persistirlo.
// Sin naturaleza en el ERP se asume purchased.
func (r *Registry) MintFromERPInput(erp entity.ERPItem) (*entity.Item, error) {
	if strings.TrimSpace(erp.Code) == "" {
		return nil, domain.Invalid("erpCode", "artículo ERP sin código")
	}
	synced := r.now()
	nature := erp.Nature
	if !entity.ValidNature(nature) {
		nature = entity.NaturePurchased
	}
	return &entity.Item{
		CompanyID:   erp.CompanyID,
		Code:        erp.Code,
		Description: erp.Description,
		Nature:      nature,
		BaseUoM:     erp.BaseUoM,
		Status:      entity.ItemStatusActive,
		ERPLinked:   true,
		ERPSyncedAt: &synced,
	}, nil
}

// MintFromERP crea el espejo local de un artículo ERP.
func (r *Registry) MintFromERP(ctx context.Context, companyID int, userID string, erp entity.ERPItem) (*entity.Item, error) {
	it, err := r.MintFromERPInput(erp)
	if err != nil {
		return nil, err
	}
	it.CompanyID = companyID
	it.CreatedBy = userID
	if err := r.items.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// ResolveOrMintFromERP busca el artículo por código y, si no existe, lo crea con los
// datos maestros del ERP.
func (r *Registry) ResolveOrMintFromERP(ctx context.Context, erp repository.ERPReader, companyID int, userID, code string) (*entity.Item, bool, error) {
	it, err := r.FindByCode(ctx, companyID, code)
	if err == nil {
		return it, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	master, err := erp.GetItem(ctx, companyID, code)
	if err != nil {
		return nil, false, err
	}
	it, err = r.MintFromERP(ctx, companyID, userID, *master)
	return it, err == nil, err
}

// DisableCheck resultado de la guardia de deshabilitación.
type DisableCheck struct {
	CanDisable    bool
	Reason        string
	ProjectCount  int
	BOMUsageCount int
}

// CheckDisable evalúa si el artículo puede pasar a deshabilitado: no debe estarlo ya,
// no debe estar vinculado al ERP, a lo sumo un proyecto y ningún uso como componente.
func (r *Registry) CheckDisable(ctx context.Context, companyID int, id int64) (DisableCheck, error) {
	it, err := r.items.GetByID(ctx, companyID, id)
	if err != nil {
		return DisableCheck{}, err
	}
	usage, err := r.items.Usage(ctx, companyID, id)
	if err != nil {
		return DisableCheck{}, err
	}
	chk := DisableCheck{ProjectCount: usage.ProjectCount, BOMUsageCount: usage.BOMUsageCount}
	switch {
	case it.Disabled:
		chk.Reason = "el artículo ya está deshabilitado"
	case it.ERPLinked:
		chk.Reason = "el artículo está vinculado al ERP"
	case usage.ProjectCount > 1:
		chk.Reason = fmt.Sprintf("el artículo está en %d proyectos", usage.ProjectCount)
	case usage.BOMUsageCount > 0:
		chk.Reason = fmt.Sprintf("el artículo se usa como componente en %d líneas", usage.BOMUsageCount)
	default:
		chk.CanDisable = true
	}
	return chk, nil
}

// Disable aplica la guardia y deshabilita. Si la guardia falla devuelve ErrConflict con el motivo.
func (r *Registry) Disable(ctx context.Context, companyID int, id int64) error {
	chk, err := r.CheckDisable(ctx, companyID, id)
	if err != nil {
		return err
	}
	if !chk.CanDisable {
		return fmt.Errorf("%s: %w", chk.Reason, domain.ErrConflict)
	}
	return r.items.Disable(ctx, companyID, id)
}
