package services

import (
	"context"
	"time"
)

// CatalogChangedEvent is the message type published after product mutations.
const CatalogChangedEvent = "catalog.changed"

const (
	CatalogActionCreated  = "created"
	CatalogActionUpdated  = "updated"
	CatalogActionFeatured = "featured"
	CatalogActionDeleted  = "deleted"
)

// CatalogEvent describes one product mutation.
type CatalogEvent struct {
	Action     string    `json:"action"`
	ProductID  string    `json:"productId"`
	Category   string    `json:"category,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CatalogEventPublisher delivers catalog events. Delivery failures never fail
// the originating mutation.
type CatalogEventPublisher interface {
	PublishCatalogEvent(ctx context.Context, event CatalogEvent) error
}

// CatalogRecorder receives catalog metrics.
type CatalogRecorder interface {
	RecordUpload(err error)
	RecordCatalogEvent(action string, err error)
}

type noopCatalogRecorder struct{}

func (noopCatalogRecorder) RecordUpload(error) {}

func (noopCatalogRecorder) RecordCatalogEvent(string, error) {}
