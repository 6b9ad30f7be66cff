package bom

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/bom-api/internal/domain/bom"
)

// Locker serializa flujos de varios pasos sobre una misma distinta o artículo.
// Lock devuelve domain.ErrLocked si la clave está tomada; no reintenta.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EventType tipo de evento de cambio.
type EventType string

const (
	EventBOMCreated   EventType = "bom.created"
	EventBOMUpdated   EventType = "bom.updated"
	EventBOMReordered EventType = "bom.reordered"
	EventBOMReplaced  EventType = "bom.component_replaced"
)

// Event cambio estructural confirmado.
type Event struct {
	ID        string     `json:"id"`
	Type      EventType  `json:"type"`
	CompanyID int        `json:"companyId"`
	BOMID     int64      `json:"bomId"`
	ItemID    int64      `json:"itemId,omitempty"`
	Action    bom.Action `json:"action"`
	UserID    string     `json:"userId"`
	At        time.Time  `json:"at"`
}

// EventPublisher publica eventos sin bloquear al caller.
type EventPublisher interface {
	Publish(ctx context.Context, e Event)
}

// NopPublisher descarta los eventos (sin brokers configurados).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

func eventTypeFor(a bom.Action) EventType {
	switch a {
	case bom.ActionAdd, bom.ActionCopy:
		return EventBOMCreated
	case bom.ActionReorderComponents, bom.ActionReorderRouting:
		return EventBOMReordered
	case bom.ActionReplaceComponent, bom.ActionReplaceWithNewComponent:
		return EventBOMReplaced
	}
	return EventBOMUpdated
}

// BOMLockKey clave de candado de una distinta.
func BOMLockKey(companyID int, bomID int64) string {
	return fmt.Sprintf("bom:%d:%d", companyID, bomID)
}

// ItemLockKey clave de candado de un artículo (creación o copia de distintas).
func ItemLockKey(companyID int, itemID int64) string {
	return fmt.Sprintf("item:%d:%d", companyID, itemID)
}
