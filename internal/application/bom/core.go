package bom

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/bom-api/internal/application/item"
	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/pkg/logger"
	"github.com/jhoicas/bom-api/pkg/tracing"
)

var tracer = tracing.Tracer("application/bom")

// Deps colaboradores del motor de distintas.
type Deps struct {
	Tx     repository.TxRunner
	Repos  repository.TxRepos // autocommit, solo lecturas fuera de transacción
	ERP    repository.ERPReader
	Locker Locker
	Events EventPublisher
	Log    *logger.Logger
}

// Options parámetros del motor.
type Options struct {
	TempCodePrefix  string
	HeavyOpTimeout  time.Duration
	MaxImportLevels int
}

func (o Options) withDefaults() Options {
	if o.TempCodePrefix == "" {
		o.TempCodePrefix = item.DefaultTempPrefix
	}
	if o.HeavyOpTimeout <= 0 {
		o.HeavyOpTimeout = 30 * time.Second
	}
	if o.MaxImportLevels <= 0 {
		o.MaxImportLevels = bom.DefaultMaxLevel
	}
	return o
}

// core estado compartido por el accesor, el reordenador y el compositor.
type core struct {
	tx     repository.TxRunner
	repos  repository.TxRepos
	erp    repository.ERPReader
	locker Locker
	events EventPublisher
	log    *logger.Logger
	opts   Options
	now    func() time.Time
}

func newCore(d Deps, opts Options) *core {
	c := &core{
		tx:     d.Tx,
		repos:  d.Repos,
		erp:    d.ERP,
		locker: d.Locker,
		events: d.Events,
		log:    d.Log,
		opts:   opts.withDefaults(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if c.events == nil {
		c.events = NopPublisher{}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	return c
}

// registry Item Registry atado al repositorio de artículos de la transacción.
func (c *core) registry(items repository.ItemRepository) *item.Registry {
	return item.NewRegistry(items, c.opts.TempCodePrefix)
}

// lock toma el candado de key; sin Locker configurado no serializa.
func (c *core) lock(ctx context.Context, key string) (func(), error) {
	if c.locker == nil {
		return func() {}, nil
	}
	return c.locker.Lock(ctx, key)
}

// apply resuelve la referencia de componente y ejecuta una mutación simple dentro de repos.
// Devuelve también el acuse crudo para quien necesite distinguir Ambiguous.
func (c *core) apply(ctx context.Context, repos repository.TxRepos, companyID int, userID string, m bom.Mutation) (*bom.MutationResult, bom.Ack, error) {
	res := &bom.MutationResult{}
	switch cmd := m.(type) {
	case bom.AddComponent:
		it, minted, err := c.registry(repos.Items).ResolveForComponent(ctx, companyID, userID, cmd.Component)
		if err != nil {
			return nil, bom.Ack{}, err
		}
		if minted {
			res.CreatedComponentCode = it.Code
		}
		cmd.Component = bom.ComponentRef{ItemID: it.ID}
		m = cmd
	case bom.ReplaceComponent:
		it, _, err := c.registry(repos.Items).ResolveForComponent(ctx, companyID, userID, cmd.Component)
		if err != nil {
			return nil, bom.Ack{}, err
		}
		cmd.Component = bom.ComponentRef{ItemID: it.ID}
		m = cmd
	}

	ack, err := repos.BOMs.Mutate(ctx, companyID, userID, m)
	if err != nil {
		return nil, bom.Ack{}, err
	}
	if v, ok := ack.Value(); ok {
		res.BOMID = v.BOMID
		res.Msg = v.Msg
		return res, ack, nil
	}
	// Sin valor de retorno: las acciones sobre una distinta existente conservan su id;
	// las que crean cabecera no tienen de dónde sacarlo.
	id := targetBOM(m)
	if id == 0 {
		return nil, ack, &domain.OperationError{Code: bom.CodeRejected, Message: "el almacenamiento no devolvió el id de la distinta"}
	}
	res.BOMID = id
	res.Msg = "ok"
	return res, ack, nil
}

// targetBOM distinta sobre la que actúa m (0 si la acción crea una cabecera).
func targetBOM(m bom.Mutation) int64 {
	switch c := m.(type) {
	case bom.UpdateBOM:
		return c.BOMID
	case bom.AddComponent:
		return c.BOMID
	case bom.UpdateComponent:
		return c.BOMID
	case bom.DeleteComponent:
		return c.BOMID
	case bom.AddRouting:
		return c.BOMID
	case bom.UpdateRouting:
		return c.BOMID
	case bom.DeleteRouting:
		return c.BOMID
	case bom.ReorderComponents:
		return c.BOMID
	case bom.ReorderRouting:
		return c.BOMID
	case bom.ReplaceComponent:
		return c.BOMID
	case bom.ReplaceWithNewComponent:
		return c.BOMID
	}
	return 0
}

func targetItem(m bom.Mutation) int64 {
	switch c := m.(type) {
	case bom.AddBOM:
		return c.TargetItemID
	case bom.CopyBOM:
		return c.TargetItemID
	}
	return 0
}

// publish emite el evento de una mutación ya confirmada.
func (c *core) publish(ctx context.Context, companyID int, userID string, action bom.Action, bomID, itemID int64) {
	c.events.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      eventTypeFor(action),
		CompanyID: companyID,
		BOMID:     bomID,
		ItemID:    itemID,
		Action:    action,
		UserID:    userID,
		At:        c.now(),
	})
}

func startSpan(ctx context.Context, name string, companyID int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.Int("company.id", companyID))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
