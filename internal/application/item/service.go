package item

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/pkg/logger"
	"github.com/jhoicas/bom-api/pkg/tracing"
)

var tracer = tracing.Tracer("application/item")

// BOMImporter importa la estructura multinivel ERP de un artículo dentro de la transacción
// recibida. Devuelve cuántas distintas creó.
type BOMImporter interface {
	ImportERPStructure(ctx context.Context, repos repository.TxRepos, companyID int, userID string, itemID int64, maxLevels int) (int, error)
}

// Locker candado por clave; ver application/bom.Locker.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Service casos de uso de artículos que necesitan transacción.
type Service struct {
	tx        repository.TxRunner
	items     repository.ItemRepository
	erp       repository.ERPReader
	importer  BOMImporter
	locker    Locker
	log       *logger.Logger
	prefix    string
	maxLevels int
}

// NewService construye el servicio. importer y locker pueden ser nil.
func NewService(tx repository.TxRunner, items repository.ItemRepository, erp repository.ERPReader, importer BOMImporter, locker Locker, log *logger.Logger, prefix string, maxLevels int) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if maxLevels <= 0 {
		maxLevels = bom.DefaultMaxLevel
	}
	return &Service{tx: tx, items: items, erp: erp, importer: importer, locker: locker, log: log, prefix: prefix, maxLevels: maxLevels}
}

// Registry registro en autocommit.
func (s *Service) Registry() *Registry { return NewRegistry(s.items, s.prefix) }

// Disable evalúa la guardia y deshabilita en una misma transacción.
func (s *Service) Disable(ctx context.Context, companyID int, id int64) error {
	return s.tx.RunBOM(ctx, func(repos repository.TxRepos) error {
		return NewRegistry(repos.Items, s.prefix).Disable(ctx, companyID, id)
	})
}

// ImportInput parámetros de ImportERPItem.
type ImportInput struct {
	ProjectID int64
	ERPCode   string
	ImportBOM bool
	MaxLevels int // 0 = límite configurado
}

// ImportResult resultado de la importación.
type ImportResult struct {
	Item         *entity.Item
	BOMsImported int
}

// ImportERPItem materializa el espejo local de un artículo ERP, lo vincula al proyecto y,
// opcionalmente, importa su distinta multinivel.
func (s *Service) ImportERPItem(ctx context.Context, companyID int, userID string, in ImportInput) (res *ImportResult, err error) {
	code := strings.TrimSpace(in.ERPCode)
	if code == "" {
		return nil, domain.Invalid("erpCode", "requerido")
	}
	if in.ProjectID <= 0 {
		return nil, domain.Invalid("projectId", "requerido")
	}
	ctx, span := tracer.Start(ctx, "item.ImportERPItem")
	span.SetAttributes(attribute.Int("company.id", companyID), attribute.String("erp.code", code))
	defer func() { tracing.End(span, err) }()

	master, err := s.erp.GetItem(ctx, companyID, code)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, fmt.Sprintf("erp:%d:%s", companyID, strings.ToUpper(code)))
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	levels := in.MaxLevels
	if levels <= 0 || levels > s.maxLevels {
		levels = s.maxLevels
	}

	res = &ImportResult{}
	err = s.tx.RunBOM(ctx, func(repos repository.TxRepos) error {
		reg := NewRegistry(repos.Items, s.prefix)
		mirror, err := reg.MintFromERPInput(*master)
		if err != nil {
			return err
		}
		mirror.CompanyID = companyID
		mirror.CreatedBy = userID
		id, err := repos.Items.UpsertFromERP(ctx, mirror)
		if err != nil {
			return fmt.Errorf("upsert artículo ERP %s: %w", code, err)
		}
		var it *entity.Item
		if id > 0 {
			it, err = repos.Items.GetByID(ctx, companyID, id)
		} else {
			s.log.Warn().Str("code", code).Msg("upsert ERP sin id; se busca por código")
			it, err = repos.Items.FindByCode(ctx, companyID, code)
		}
		if err != nil {
			return err
		}
		if err := repos.Items.LinkProject(ctx, companyID, in.ProjectID, it.ID); err != nil {
			return err
		}
		res.Item = it
		if !in.ImportBOM || s.importer == nil {
			return nil
		}
		n, err := s.importer.ImportERPStructure(ctx, repos, companyID, userID, it.ID, levels)
		if err != nil {
			return err
		}
		res.BOMsImported = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importar artículo ERP %s: %w", code, err)
	}
	s.log.Info().Int("company_id", companyID).Str("code", code).Int64("item_id", res.Item.ID).
		Int("boms", res.BOMsImported).Msg("artículo ERP importado")
	return res, nil
}
