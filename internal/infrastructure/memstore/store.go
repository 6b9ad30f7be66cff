// Package memstore implementa los puertos de persistencia en memoria con semántica
// transaccional: cada transacción trabaja sobre una copia del estado y solo la publica
// al confirmar. Se usa en desarrollo (BOM_STORAGE_DRIVER=memory) y en las pruebas.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type projectLink struct {
	companyID int
	projectID int64
	itemID    int64
}

type seqKey struct {
	companyID int
	prefix    string
}

type state struct {
	items      map[int64]entity.Item
	boms       map[int64]entity.BOM
	components map[int64]entity.BOMComponent
	routing    map[int64]entity.BOMRouting
	references map[int64]entity.Reference
	projects   map[projectLink]struct{}
	tempSeq    map[seqKey]int
	nextID     int64
}

func newState() state {
	return state{
		items:      map[int64]entity.Item{},
		boms:       map[int64]entity.BOM{},
		components: map[int64]entity.BOMComponent{},
		routing:    map[int64]entity.BOMRouting{},
		references: map[int64]entity.Reference{},
		projects:   map[projectLink]struct{}{},
		tempSeq:    map[seqKey]int{},
	}
}

// clone copia los mapas; los valores son structs y los punteros internos nunca se mutan
// en sitio, así que la copia superficial basta.
func (s state) clone() state {
	c := state{
		items:      make(map[int64]entity.Item, len(s.items)),
		boms:       make(map[int64]entity.BOM, len(s.boms)),
		components: make(map[int64]entity.BOMComponent, len(s.components)),
		routing:    make(map[int64]entity.BOMRouting, len(s.routing)),
		references: make(map[int64]entity.Reference, len(s.references)),
		projects:   make(map[projectLink]struct{}, len(s.projects)),
		tempSeq:    make(map[seqKey]int, len(s.tempSeq)),
		nextID:     s.nextID,
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.boms {
		c.boms[k] = v
	}
	for k, v := range s.components {
		c.components[k] = v
	}
	for k, v := range s.routing {
		c.routing[k] = v
	}
	for k, v := range s.references {
		c.references[k] = v
	}
	for k := range s.projects {
		c.projects[k] = struct{}{}
	}
	for k, v := range s.tempSeq {
		c.tempSeq[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// ReplaceAck controla cómo acusa el almacén un REPLACE_COMPONENT.
type ReplaceAck int

const (
	// ReplaceAckExplicit escribe y devuelve el componente resultante.
	ReplaceAckExplicit ReplaceAck = iota
	// ReplaceAckAmbiguous escribe pero no devuelve valor.
	ReplaceAckAmbiguous
	// ReplaceAckLost no escribe ni devuelve valor (escritura perdida).
	ReplaceAckLost
)

type fault struct {
	op   string
	call int
	err  error
}

// Store almacén en memoria. Las transacciones se serializan con mu.
type Store struct {
	mu    sync.RWMutex
	state state
	now   func() time.Time

	// Los datos ERP y maestros tienen su propio candado: se leen dentro de transacciones.
	erpMu    sync.RWMutex
	erpItems map[erpKey]entity.ERPItem
	erpBOMs  map[erpKey]entity.ERPBOM
	master   masterData

	faultMu      sync.Mutex
	faults       []fault
	calls        map[string]int
	replaceAck   ReplaceAck
	upsertHideID bool
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{
		state:    newState(),
		now:      func() time.Time { return time.Now().UTC() },
		erpItems: map[erpKey]entity.ERPItem{},
		erpBOMs:  map[erpKey]entity.ERPBOM{},
		calls:    map[string]int{},
	}
}

// SetClock fija el reloj usado para CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// FailOn hace que la call-ésima llamada a op, contando desde ahora, devuelva err.
// op es el nombre de la operación, p. ej. "MoveComponentLine" o "Mutate".
func (s *Store) FailOn(op string, call int, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults = append(s.faults, fault{op: op, call: s.calls[op] + call, err: err})
}

// SeedNextID hace que el próximo id asignado sea id.
func (s *Store) SeedNextID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id-1 > s.state.nextID {
		s.state.nextID = id - 1
	}
}

// SetReplaceAck cambia el acuse de REPLACE_COMPONENT.
func (s *Store) SetReplaceAck(mode ReplaceAck) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.replaceAck = mode
}

// HideUpsertID hace que UpsertFromERP no reporte el id creado.
func (s *Store) HideUpsertID(hide bool) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.upsertHideID = hide
}

func (s *Store) hit(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.calls[op]++
	n := s.calls[op]
	for _, f := range s.faults {
		if f.op == op && f.call == n {
			return f.err
		}
	}
	return nil
}

func (s *Store) replaceMode() ReplaceAck {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.replaceAck
}

func (s *Store) hideUpsertID() bool {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.upsertHideID
}

// RunBOM ejecuta fn sobre una copia del estado y la publica solo si fn devuelve nil.
func (s *Store) RunBOM(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	v := &view{store: s, st: &work, inTx: true}
	if err := fn(v.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Repos devuelve repositorios en modo autocommit: cada llamada es su propia transacción.
func (s *Store) Repos() repository.TxRepos {
	v := &view{store: s}
	return v.repos()
}

// view implementa los puertos sobre un estado. Dentro de una transacción st apunta a la
// copia de trabajo; en autocommit st es nil y cada operación toma el candado del Store.
type view struct {
	store *Store
	st    *state
	inTx  bool
}

func (v *view) repos() repository.TxRepos {
	return repository.TxRepos{
		BOMs:       bomStore{v},
		Lines:      lineRepo{v},
		Items:      itemRepo{v},
		References: referenceRepo{v},
		Savepoint:  v.savepoint,
	}
}

// savepoint corre fn sobre una copia del estado de la transacción y la aplica solo si fn
// no falla. En autocommit equivale a RunBOM.
func (v *view) savepoint(ctx context.Context, fn func(repository.TxRepos) error) error {
	if !v.inTx {
		return v.store.RunBOM(ctx, fn)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c := v.st.clone()
	nested := &view{store: v.store, st: &c, inTx: true}
	if err := fn(nested.repos()); err != nil {
		return err
	}
	*v.st = c
	return nil
}

// read ejecuta fn sobre el estado visible.
func (v *view) read(fn func(st *state) error) error {
	if v.inTx {
		return fn(v.st)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(&v.store.state)
}

// write ejecuta fn sobre una copia y la aplica solo si fn no falla, como un savepoint
// dentro de la transacción o un commit en autocommit.
func (v *view) write(ctx context.Context, op string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.store.hit(op); err != nil {
		return err
	}
	if v.inTx {
		c := v.st.clone()
		if err := fn(&c); err != nil {
			return err
		}
		*v.st = c
		return nil
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	c := v.store.state.clone()
	if err := fn(&c); err != nil {
		return err
	}
	v.store.state = c
	return nil
}
