package memstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var (
	_ repository.ERPReader            = (*Store)(nil)
	_ repository.MasterDataRepository = (*Store)(nil)
)

type erpKey struct {
	companyID int
	code      string
}

func newERPKey(companyID int, code string) erpKey {
	return erpKey{companyID: companyID, code: strings.ToUpper(strings.TrimSpace(code))}
}

type masterData struct {
	workCenters []entity.WorkCenter
	operations  []entity.Operation
	suppliers   []entity.Supplier
	units       []entity.UnitOfMeasure
}

// SeedERPItem registra un artículo en el ERP simulado.
func (s *Store) SeedERPItem(it entity.ERPItem) {
	s.erpMu.Lock()
	defer s.erpMu.Unlock()
	s.erpItems[newERPKey(it.CompanyID, it.Code)] = it
}

// SeedERPBOM registra una distinta en el ERP simulado.
func (s *Store) SeedERPBOM(b entity.ERPBOM) {
	s.erpMu.Lock()
	defer s.erpMu.Unlock()
	s.erpBOMs[newERPKey(b.CompanyID, b.Code)] = b
}

// SeedMasterData agrega datos maestros.
func (s *Store) SeedMasterData(wc []entity.WorkCenter, ops []entity.Operation, sup []entity.Supplier, units []entity.UnitOfMeasure) {
	s.erpMu.Lock()
	defer s.erpMu.Unlock()
	s.master.workCenters = append(s.master.workCenters, wc...)
	s.master.operations = append(s.master.operations, ops...)
	s.master.suppliers = append(s.master.suppliers, sup...)
	s.master.units = append(s.master.units, units...)
}

func (s *Store) GetItem(ctx context.Context, companyID int, code string) (*entity.ERPItem, error) {
	s.erpMu.RLock()
	defer s.erpMu.RUnlock()
	it, ok := s.erpItems[newERPKey(companyID, code)]
	if !ok {
		return nil, fmt.Errorf("artículo ERP %s: %w", code, domain.ErrNotFound)
	}
	return &it, nil
}

func (s *Store) GetBOM(ctx context.Context, companyID int, code string) (*entity.ERPBOM, error) {
	s.erpMu.RLock()
	defer s.erpMu.RUnlock()
	b, ok := s.erpBOMs[newERPKey(companyID, code)]
	if !ok {
		return nil, fmt.Errorf("distinta ERP %s: %w", code, domain.ErrNotFound)
	}
	b.Components = append([]entity.ERPBOMComponent(nil), b.Components...)
	return &b, nil
}

func (s *Store) ListWorkCenters(ctx context.Context, companyID int) ([]entity.WorkCenter, error) {
	s.erpMu.RLock()
	defer s.erpMu.RUnlock()
	return filterCompany(s.master.workCenters, func(w entity.WorkCenter) int { return w.CompanyID }, companyID), nil
}

func (s *Store) ListOperations(ctx context.Context, companyID int) ([]entity.Operation, error) {
	s.erpMu.RLock()
	defer s.erpMu.RUnlock()
	return filterCompany(s.master.operations, func(o entity.Operation) int { return o.CompanyID }, companyID), nil
}

func (s *Store) ListSuppliers(ctx context.Context, companyID int) ([]entity.Supplier, error) {
	s.erpMu.RLock()
	defer s.erpMu.RUnlock()
	return filterCompany(s.master.suppliers, func(x entity.Supplier) int { return x.CompanyID }, companyID), nil
}

func (s *Store) ListUnits(ctx context.Context, companyID int) ([]entity.UnitOfMeasure, error) {
	s.erpMu.RLock()
	defer s.erpMu.RUnlock()
	return filterCompany(s.master.units, func(u entity.UnitOfMeasure) int { return u.CompanyID }, companyID), nil
}

func filterCompany[T any](rows []T, company func(T) int, companyID int) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if company(r) == companyID {
			out = append(out, r)
		}
	}
	return out
}
