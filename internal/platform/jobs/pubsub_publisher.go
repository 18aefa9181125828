// Package jobs publishes background notifications to Cloud Pub/Sub.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/saifelleuhci/kanouwood2/internal/services"
)

// PubSubCatalogPublisher publishes catalog.changed events to a Pub/Sub topic.
type PubSubCatalogPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

func NewPubSubCatalogPublisher(topic *pubsub.Topic) (*PubSubCatalogPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub catalog publisher: topic is required")
	}
	return &PubSubCatalogPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishCatalogEvent blocks until the server acknowledges the message.
func (p *PubSubCatalogPublisher) PublishCatalogEvent(ctx context.Context, event services.CatalogEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub catalog publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal catalog event: %w", err)
	}

	attrs := map[string]string{"type": services.CatalogChangedEvent}
	setAttr(attrs, "action", event.Action)
	setAttr(attrs, "productId", event.ProductID)
	setAttr(attrs, "category", event.Category)

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish catalog event: %w", err)
	}
	return nil
}

// Stop flushes pending messages.
func (p *PubSubCatalogPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
