package hits

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// HitEvent is the JSON payload published for each persisted hit.
type HitEvent struct {
	ID            string    `json:"id"`
	DestinationID string    `json:"destination_id"`
	AliasID       *string   `json:"alias_id,omitempty"`
	IPAddress     *string   `json:"ip_address,omitempty"`
	UserAgent     *string   `json:"user_agent,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NATSPublisher fans persisted hits out on a core NATS subject. Delivery is
// fire-and-forget, matching the pipeline's at-most-once contract.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats: empty subject")
	}
	conn, err := nats.Connect(
		url,
		nats.Name("go-redirect-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishHit implements Publisher.
func (p *NATSPublisher) PublishHit(ctx context.Context, h domain.Hit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewHitEvent(h))
	if err != nil {
		return fmt.Errorf("marshal hit event: %w", err)
	}
	return p.conn.Publish(p.subject, data)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NewHitEvent converts a stored hit to its wire form.
func NewHitEvent(h domain.Hit) HitEvent {
	return HitEvent{
		ID:            h.ID,
		DestinationID: h.DestinationID,
		AliasID:       h.AliasID,
		IPAddress:     h.IPAddress,
		UserAgent:     h.UserAgent,
		CreatedAt:     h.CreatedAt,
	}
}
