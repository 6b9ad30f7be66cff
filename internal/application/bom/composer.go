package bom

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/bom-api/internal/application/item"
	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/pkg/tracing"
)

var _ item.BOMImporter = (*Composer)(nil)

// Tipos de origen de CopyBOMFromItem.
const (
	SourceTemporary = "temporary" // distinta existente de un artículo temporal
	SourceDefined   = "defined"   // distinta definida en el ERP
)

// Mensajes de resultado sin éxito (no son errores).
const (
	MsgSourceHasNoBOM = "source has no BOM"
	MsgERPBOMNotFound = "ERP BOM not found"
)

// Composer motor de composición: copia entre artículos, sustitución de componentes e
// importación de estructuras ERP.
type Composer struct {
	*core
}

// CopyFromItemInput parámetros de CopyBOMFromItem.
type CopyFromItemInput struct {
	TargetItemID    int64
	SourceItemID    int64 // solo para SourceTemporary
	SourceCompanyID int   // 0 = misma empresa
	SourceType      string
}

func (in CopyFromItemInput) validate() error {
	if in.TargetItemID <= 0 {
		return domain.Invalid("targetItemId", "requerido")
	}
	switch in.SourceType {
	case SourceTemporary:
		if in.SourceItemID <= 0 {
			return domain.Invalid("sourceItemId", "requerido")
		}
	case SourceDefined:
	default:
		return domain.Invalid("sourceType", "origen no soportado: "+in.SourceType)
	}
	return nil
}

// CopyResult resultado de CopyBOMFromItem. Success=false con Msg es un resultado
// descriptivo, no un error. Added/Skipped cuentan componentes en las copias línea a línea.
type CopyResult struct {
	Success      bool
	Msg          string
	BOMID        int64
	Added        int
	Skipped      int
	CreatedItems []string
}

// CopyBOMFromItem crea en el artículo destino una distinta copiada de otro artículo o del ERP.
func (c *Composer) CopyBOMFromItem(ctx context.Context, companyID int, userID string, in CopyFromItemInput) (res *CopyResult, err error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "bom.CopyBOMFromItem", companyID,
		attribute.Int64("bom.target_item", in.TargetItemID), attribute.String("bom.source_type", in.SourceType))
	defer func() { tracing.End(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.opts.HeavyOpTimeout)
	defer cancel()

	unlock, err := c.lock(ctx, ItemLockKey(companyID, in.TargetItemID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	res = &CopyResult{}
	err = c.tx.RunBOM(ctx, func(repos repository.TxRepos) error {
		*res = CopyResult{}
		target, err := repos.Items.GetByID(ctx, companyID, in.TargetItemID)
		if err != nil {
			return err
		}
		if in.SourceType == SourceDefined {
			return c.copyFromERP(ctx, repos, companyID, userID, target, res)
		}
		return c.copyFromItem(ctx, repos, companyID, userID, target, in, res)
	})
	if err != nil {
		return nil, err
	}
	if res.Success {
		c.log.Info().Int("company_id", companyID).Int64("bom_id", res.BOMID).Str("source", in.SourceType).
			Int("added", res.Added).Int("skipped", res.Skipped).Msg("distinta copiada")
		c.publish(ctx, companyID, userID, bom.ActionCopy, res.BOMID, in.TargetItemID)
	}
	return res, nil
}

func newHeaderFor(target *entity.Item) bom.Header {
	return bom.Header{
		Code:        "BOM_" + target.Code,
		Description: target.Description,
		Status:      entity.BOMStatusDraft,
	}
}

func (c *Composer) copyFromItem(ctx context.Context, repos repository.TxRepos, companyID int, userID string, target *entity.Item, in CopyFromItemInput, res *CopyResult) error {
	srcCompany := in.SourceCompanyID
	if srcCompany == 0 {
		srcCompany = companyID
	}
	if srcCompany != companyID {
		if err := c.checkIntercompany(ctx, repos, srcCompany, in.SourceItemID, companyID, target.ID); err != nil {
			return err
		}
	}
	full, err := loadFull(ctx, repos.BOMs, srcCompany, bom.Ref{ItemID: in.SourceItemID})
	if errors.Is(err, domain.ErrNotFound) {
		res.Msg = MsgSourceHasNoBOM
		return nil
	}
	if err != nil {
		return err
	}

	hdr := newHeaderFor(target)
	if srcCompany == companyID {
		mr, _, err := c.apply(ctx, repos, companyID, userID, bom.CopyBOM{
			TargetItemID:   target.ID,
			SourceBOMID:    full.Header.ID,
			Header:         hdr,
			CopyComponents: true,
			CopyRouting:    true,
		})
		if err != nil {
			return err
		}
		res.Success, res.BOMID, res.Msg = true, mr.BOMID, mr.Msg
		res.Added = len(full.Components)
		return nil
	}

	// Entre empresas no hay copia en el almacén: se rehace la distinta línea a línea
	// resolviendo cada componente por código en la empresa destino.
	hdr.UoM = full.Header.UoM
	hdr.LotSize = bom.Amount(full.Header.LotSize)
	mr, _, err := c.apply(ctx, repos, companyID, userID, bom.AddBOM{TargetItemID: target.ID, Header: hdr})
	if err != nil {
		return err
	}
	res.Success, res.BOMID = true, mr.BOMID
	for _, comp := range full.Components {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := comp.Line
		_, _, err := c.apply(ctx, repos, companyID, userID, bom.AddComponent{
			BOMID:     mr.BOMID,
			Line:      &line,
			Component: bom.ComponentRef{Code: comp.ComponentCode},
			Data:      lineFromComponent(comp),
		})
		if err != nil {
			c.log.Warn().Err(err).Int64("bom_id", mr.BOMID).Str("component", comp.ComponentCode).Msg("componente omitido en copia entre empresas")
			res.Skipped++
			continue
		}
		res.Added++
	}
	for _, rt := range full.Routing {
		step := rt.RtgStep
		if _, _, err := c.apply(ctx, repos, companyID, userID, bom.AddRouting{BOMID: mr.BOMID, Step: &step, Data: routingFrom(rt)}); err != nil {
			c.log.Warn().Err(err).Int64("bom_id", mr.BOMID).Int("rtg_step", step).Msg("fase omitida en copia entre empresas")
		}
	}
	res.Msg = fmt.Sprintf("distinta copiada: %d componentes, %d omitidos", res.Added, res.Skipped)
	return nil
}

// checkIntercompany exige una referencia del artículo origen hacia la empresa destino,
// sin artículo destino fijado o fijado al artículo que recibe la copia.
func (c *Composer) checkIntercompany(ctx context.Context, repos repository.TxRepos, srcCompany int, srcItem int64, companyID int, targetItem int64) error {
	refs, err := repos.References.ListBySource(ctx, srcCompany, srcItem)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.TargetCompanyID != companyID {
			continue
		}
		if ref.TargetItemID == nil || *ref.TargetItemID == targetItem {
			return nil
		}
	}
	return fmt.Errorf("sin referencia del artículo %d (empresa %d) hacia la empresa %d: %w", srcItem, srcCompany, companyID, domain.ErrForbidden)
}

func (c *Composer) copyFromERP(ctx context.Context, repos repository.TxRepos, companyID int, userID string, target *entity.Item, res *CopyResult) error {
	erpBOM, err := c.erp.GetBOM(ctx, companyID, target.Code)
	if errors.Is(err, domain.ErrNotFound) {
		res.Msg = MsgERPBOMNotFound
		return nil
	}
	if err != nil {
		return err
	}
	stats, err := c.addERPBOM(ctx, repos, companyID, userID, target, erpBOM)
	if err != nil {
		return err
	}
	res.Success = true
	res.BOMID = stats.BOMID
	res.Added, res.Skipped = stats.Added, stats.Skipped
	res.CreatedItems = stats.Created
	res.Msg = fmt.Sprintf("distinta importada del ERP: %d componentes, %d omitidos", stats.Added, stats.Skipped)
	return nil
}

type erpStats struct {
	BOMID     int64
	Added     int
	Skipped   int
	Created   []string
	Component []int64 // artículos componentes agregados, en orden
}

// addERPBOM crea la cabecera y agrega cada componente del ERP. Un componente que falla se
// registra y se omite; el resto continúa.
func (c *Composer) addERPBOM(ctx context.Context, repos repository.TxRepos, companyID int, userID string, target *entity.Item, erpBOM *entity.ERPBOM) (*erpStats, error) {
	hdr := newHeaderFor(target)
	if erpBOM.Description != "" {
		hdr.Description = erpBOM.Description
	}
	hdr.UoM = erpBOM.UoM
	mr, _, err := c.apply(ctx, repos, companyID, userID, bom.AddBOM{TargetItemID: target.ID, Header: hdr})
	if err != nil {
		return nil, err
	}
	stats := &erpStats{BOMID: mr.BOMID}
	for _, ec := range erpBOM.Components {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Alta del espejo y de la línea van juntas: si la línea falla no queda el artículo huérfano.
		var comp *entity.Item
		var minted bool
		err := repos.Savepoint(ctx, func(sp repository.TxRepos) error {
			var err error
			comp, minted, err = c.registry(sp.Items).ResolveOrMintFromERP(ctx, c.erp, companyID, userID, ec.ComponentCode)
			if err != nil {
				return err
			}
			return c.addERPComponent(ctx, sp, companyID, userID, mr.BOMID, comp.ID, ec)
		})
		if err != nil {
			c.log.Warn().Err(err).Int64("bom_id", mr.BOMID).Str("component", ec.ComponentCode).Msg("componente ERP omitido")
			stats.Skipped++
			continue
		}
		if minted {
			stats.Created = append(stats.Created, comp.Code)
		}
		stats.Added++
		stats.Component = append(stats.Component, comp.ID)
	}
	return stats, nil
}

func (c *Composer) addERPComponent(ctx context.Context, repos repository.TxRepos, companyID int, userID string, bomID, itemID int64, ec entity.ERPBOMComponent) error {
	cmd := bom.AddComponent{
		BOMID:     bomID,
		Component: bom.ComponentRef{ItemID: itemID},
		Data: bom.ComponentLine{
			ComponentType: ec.ComponentType,
			Quantity:      ec.Quantity,
			UoM:           ec.UoM,
			Notes:         ec.Notes,
		},
	}
	if ec.Line > 0 {
		line := ec.Line
		cmd.Line = &line
	}
	if err := cmd.Validate(); err != nil {
		return err
	}
	_, _, err := c.apply(ctx, repos, companyID, userID, cmd)
	return err
}

// ImportERPStructure importa la distinta ERP del artículo y, recursivamente, la de sus
// componentes hasta maxLevels. Los artículos que ya tienen distinta no se tocan y un
// conjunto de visitados corta las estructuras cíclicas del ERP.
func (c *Composer) ImportERPStructure(ctx context.Context, repos repository.TxRepos, companyID int, userID string, itemID int64, maxLevels int) (int, error) {
	if maxLevels <= 0 {
		maxLevels = c.opts.MaxImportLevels
	}
	visited := map[int64]struct{}{}
	return c.importLevel(ctx, repos, companyID, userID, itemID, 1, maxLevels, visited)
}

func (c *Composer) importLevel(ctx context.Context, repos repository.TxRepos, companyID int, userID string, itemID int64, level, maxLevels int, visited map[int64]struct{}) (int, error) {
	if _, seen := visited[itemID]; seen {
		return 0, nil
	}
	visited[itemID] = struct{}{}

	existing, err := repos.BOMs.LatestBOM(ctx, companyID, itemID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, nil
	}
	it, err := repos.Items.GetByID(ctx, companyID, itemID)
	if err != nil {
		return 0, err
	}
	erpBOM, err := c.erp.GetBOM(ctx, companyID, it.Code)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	stats, err := c.addERPBOM(ctx, repos, companyID, userID, it, erpBOM)
	if err != nil {
		return 0, err
	}
	created := 1
	if level >= maxLevels {
		if len(stats.Component) > 0 {
			c.log.Warn().Int64("item_id", itemID).Int("max_levels", maxLevels).Msg("importación ERP truncada por límite de niveles")
		}
		return created, nil
	}
	for _, child := range stats.Component {
		n, err := c.importLevel(ctx, repos, companyID, userID, child, level+1, maxLevels, visited)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

// ReplaceResult resultado de una sustitución confirmada.
type ReplaceResult struct {
	BOMID                int64
	Line                 int
	ComponentItemID      int64
	CreatedComponentCode string
	VerifiedByReread     bool  // el acuse fue ambiguo y se confirmó releyendo la línea
	CopiedBOMID          int64 // distinta copiada al componente nuevo (CopyBOM)
}

// MutationResult resumen genérico de la sustitución.
func (r *ReplaceResult) MutationResult() *bom.MutationResult {
	return &bom.MutationResult{BOMID: r.BOMID, Msg: "componente sustituido", CreatedComponentCode: r.CreatedComponentCode}
}

// ReplaceComponent sustituye el componente de una línea por un artículo existente.
func (c *Composer) ReplaceComponent(ctx context.Context, companyID int, userID string, cmd bom.ReplaceComponent) (res *ReplaceResult, err error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "bom.ReplaceComponent", companyID, attribute.Int64("bom.id", cmd.BOMID), attribute.Int("bom.line", cmd.Line))
	defer func() { tracing.End(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.opts.HeavyOpTimeout)
	defer cancel()

	unlock, err := c.lock(ctx, BOMLockKey(companyID, cmd.BOMID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = c.tx.RunBOM(ctx, func(repos repository.TxRepos) error {
		it, _, err := c.registry(repos.Items).ResolveForComponent(ctx, companyID, userID, cmd.Component)
		if err != nil {
			return err
		}
		res, err = c.replaceLine(ctx, repos, companyID, userID, cmd.BOMID, cmd.Line, it.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.publish(ctx, companyID, userID, bom.ActionReplaceComponent, res.BOMID, 0)
	return res, nil
}

// ReplaceWithNewComponent crea un componente temporal, lo coloca en la línea y, con
// CopyBOM, copia al nuevo componente la última distinta del componente sustituido.
// Todo ocurre en una transacción: si la copia falla la sustitución se revierte.
func (c *Composer) ReplaceWithNewComponent(ctx context.Context, companyID int, userID string, cmd bom.ReplaceWithNewComponent) (res *ReplaceResult, err error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "bom.ReplaceWithNewComponent", companyID,
		attribute.Int64("bom.id", cmd.BOMID), attribute.Int("bom.line", cmd.Line), attribute.Bool("bom.copy_bom", cmd.CopyBOM))
	defer func() { tracing.End(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.opts.HeavyOpTimeout)
	defer cancel()

	unlock, err := c.lock(ctx, BOMLockKey(companyID, cmd.BOMID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = c.tx.RunBOM(ctx, func(repos repository.TxRepos) error {
		old, err := repos.BOMs.ComponentAtLine(ctx, companyID, cmd.BOMID, cmd.Line)
		if err != nil {
			return err
		}
		if old == nil {
			return fmt.Errorf("línea %d de la distinta %d: %w", cmd.Line, cmd.BOMID, domain.ErrNotFound)
		}
		spec := cmd.NewComponent
		spec.CodePrefix = strings.TrimSpace(spec.CodePrefix)
		fresh, err := c.registry(repos.Items).MintTemporary(ctx, companyID, userID, spec)
		if err != nil {
			return err
		}
		res, err = c.replaceLine(ctx, repos, companyID, userID, cmd.BOMID, cmd.Line, fresh.ID)
		if err != nil {
			return err
		}
		res.CreatedComponentCode = fresh.Code
		if !cmd.CopyBOM {
			return nil
		}
		src, err := repos.BOMs.LatestBOM(ctx, companyID, old.ComponentItemID)
		if err != nil {
			return err
		}
		if src == nil {
			c.log.Debug().Int64("item_id", old.ComponentItemID).Msg("el componente sustituido no tiene distinta que copiar")
			return nil
		}
		mr, _, err := c.apply(ctx, repos, companyID, userID, bom.CopyBOM{
			TargetItemID:   fresh.ID,
			SourceBOMID:    src.ID,
			Header:         newHeaderFor(fresh),
			CopyComponents: true,
			CopyRouting:    true,
		})
		if err != nil {
			return fmt.Errorf("copiar distinta %d al componente %s: %w", src.ID, fresh.Code, err)
		}
		res.CopiedBOMID = mr.BOMID
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.publish(ctx, companyID, userID, bom.ActionReplaceWithNewComponent, res.BOMID, 0)
	if res.CopiedBOMID > 0 {
		c.publish(ctx, companyID, userID, bom.ActionCopy, res.CopiedBOMID, res.ComponentItemID)
	}
	return res, nil
}

// replaceLine emite REPLACE_COMPONENT con la referencia ya resuelta e interpreta el acuse.
func (c *Composer) replaceLine(ctx context.Context, repos repository.TxRepos, companyID int, userID string, bomID int64, line int, itemID int64) (*ReplaceResult, error) {
	_, ack, err := c.apply(ctx, repos, companyID, userID, bom.ReplaceComponent{
		BOMID:     bomID,
		Line:      line,
		Component: bom.ComponentRef{ItemID: itemID},
	})
	if err != nil {
		return nil, err
	}
	res := &ReplaceResult{BOMID: bomID, Line: line, ComponentItemID: itemID}
	if v, ok := ack.Value(); ok {
		if v.ComponentItemID != 0 && v.ComponentItemID != itemID {
			return nil, &domain.VerificationMismatch{BOMID: bomID, Line: line, Expected: itemID, Actual: v.ComponentItemID}
		}
		return res, nil
	}
	if err := VerifyReplacement(ctx, repos.BOMs, companyID, bomID, line, itemID); err != nil {
		return nil, err
	}
	res.VerifiedByReread = true
	c.log.Debug().Int64("bom_id", bomID).Int("line", line).Msg("sustitución confirmada por relectura")
	return res, nil
}

// VerifyReplacement relee la línea y confirma que tiene el componente esperado.
func VerifyReplacement(ctx context.Context, store repository.BOMStore, companyID int, bomID int64, line int, expected int64) error {
	row, err := store.ComponentAtLine(ctx, companyID, bomID, line)
	if err != nil {
		return fmt.Errorf("verificar sustitución: %w", err)
	}
	if row == nil {
		return &domain.VerificationMismatch{BOMID: bomID, Line: line, Expected: expected}
	}
	if row.ComponentItemID != expected {
		return &domain.VerificationMismatch{BOMID: bomID, Line: line, Expected: expected, Actual: row.ComponentItemID}
	}
	return nil
}

func lineFromComponent(c entity.BOMComponent) bom.ComponentLine {
	return bom.ComponentLine{
		ComponentType: c.ComponentType,
		Quantity:      c.Quantity,
		UoM:           c.UoM,
		UnitCost:      c.UnitCost,
		TotalCost:     c.TotalCost,
		FixedCost:     c.FixedCost,
		Notes:         c.Notes,
		Details:       c.Details,
	}
}

func routingFrom(rt entity.BOMRouting) bom.RoutingData {
	return bom.RoutingData{
		Operation:       rt.Operation,
		WorkCenter:      rt.WorkCenter,
		ProcessingTime:  rt.ProcessingTime,
		SetupTime:       rt.SetupTime,
		Workers:         rt.Workers,
		SetupWorkers:    rt.SetupWorkers,
		Subcontracted:   rt.Subcontracted,
		SupplierCode:    rt.SupplierCode,
		SubcontractCost: rt.SubcontractCost,
		Notes:           rt.Notes,
	}
}
