// Package broker implements the fabric's authenticated pub/sub client (C9):
// it wraps a go-redis pub/sub connection, minting a fabric token on every
// publish and validating token signature plus role membership on every
// received message, before handing the message to envelope.Decode. Grounded
// on original_source's src/modules/ipc/redis_pubsub.rs (ChannelName,
// Message, Subscription, next_message) and the teacher's go-redis/v9 usage
// in agent/persistence/redis_message_store.go.
package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/intellirouter/fabric/internal/metrics"
	"github.com/intellirouter/fabric/ipc/channel"
	"github.com/intellirouter/fabric/ipc/envelope"
	"github.com/intellirouter/fabric/ipc/security"
)

// wireEnvelope is the bytes actually placed on a Redis channel: a signed
// token identifying the publisher, alongside the JSON-encoded domain event.
type wireEnvelope struct {
	Token   string          `json:"token"`
	Payload json.RawMessage `json:"payload"`
}

// Client is an authenticated fabric pub/sub endpoint for a single service
// identity. It asserts its roles in every token it mints; it does not check
// its own roles before publishing or subscribing on an edge. Role
// enforcement happens on receive, against each Subscription's required
// roles.
type Client struct {
	rdb     redis.UniversalClient
	auth    *security.Authenticator
	service string
	roles   []string
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewClient builds a Client identified as service, asserting roles on every
// token it mints.
func NewClient(rdb redis.UniversalClient, auth *security.Authenticator, service string, roles []string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{rdb: rdb, auth: auth, service: service, roles: roles, logger: logger}
}

// SetMetrics attaches a metrics.Collector so every publish and receive is
// observed on the fabric's Prometheus surface. Optional; nil is a no-op.
func (c *Client) SetMetrics(m *metrics.Collector) { c.metrics = m }

// Publish mints a fresh token for this client's identity, encodes event,
// and publishes the (token, payload) envelope to the channel named by
// (source, destination, event.EventType()).
func (c *Client) Publish(ctx context.Context, source, destination string, event envelope.Event) error {
	id := channel.ID{Source: source, Destination: destination, Event: event.EventType()}
	if !id.Valid() {
		return fmt.Errorf("broker: invalid channel segments: %+v", id)
	}

	token, err := c.auth.Mint(c.service, c.roles)
	if err != nil {
		return fmt.Errorf("broker: mint token: %w", err)
	}

	payload, err := envelope.Encode(event)
	if err != nil {
		return err
	}

	wire, err := json.Marshal(wireEnvelope{Token: token, Payload: payload})
	if err != nil {
		return fmt.Errorf("broker: marshal wire envelope: %w", err)
	}

	if err := c.rdb.Publish(ctx, id.String(), wire).Err(); err != nil {
		if c.metrics != nil {
			c.metrics.RecordBrokerPublish(id.String(), "error")
		}
		return fmt.Errorf("broker: publish to %s: %w", id.String(), err)
	}
	if c.metrics != nil {
		c.metrics.RecordBrokerPublish(id.String(), "ok")
	}
	return nil
}

// Message is a fully validated, decoded message handed to a subscriber.
type Message struct {
	Channel channel.ID
	Claims  security.Claims
	Event   envelope.Event
}

// Subscription is a live, pattern-subscribed stream of validated messages
// for one (source, destination) edge.
type Subscription struct {
	pubsub        *redis.PubSub
	auth          *security.Authenticator
	requiredRoles []string
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// Subscribe opens a pattern subscription for every event published on the
// (source, destination) edge. requiredRoles is enforced against every
// received message's claims before it is decoded; callers that don't care
// about authorization, only authentication, may pass no roles.
func (c *Client) Subscribe(ctx context.Context, source, destination string, requiredRoles ...string) *Subscription {
	ps := c.rdb.PSubscribe(ctx, channel.Pattern(source, destination))
	return &Subscription{pubsub: ps, auth: c.auth, requiredRoles: requiredRoles, logger: c.logger, metrics: c.metrics}
}

// Next blocks until the next message arrives, or ctx is done. A message
// that fails authentication, authorization, or envelope decoding is
// reported as an error on its own Next call — the subscription itself is
// never torn down by a bad message, matching original_source's behavior of
// returning None/continuing rather than terminating the stream. A message
// for an event type this process doesn't recognize is silently skipped (it
// calls Next again internally) rather than surfaced as ignored=true, since
// there is no caller-visible "ignored" message to return.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	for {
		raw, err := s.pubsub.ReceiveMessage(ctx)
		if err != nil {
			return Message{}, fmt.Errorf("broker: receive: %w", err)
		}

		id, ok := channel.Parse(raw.Channel)
		if !ok {
			s.recordReceive("decode_error")
			return Message{}, fmt.Errorf("broker: malformed channel name %q", raw.Channel)
		}

		var wire wireEnvelope
		if err := json.Unmarshal([]byte(raw.Payload), &wire); err != nil {
			s.recordReceive("decode_error")
			return Message{}, fmt.Errorf("broker: malformed wire envelope on %q: %w", raw.Channel, err)
		}

		claims, err := s.auth.Validate(wire.Token)
		if err != nil {
			s.recordReceive("auth_error")
			return Message{}, fmt.Errorf("broker: message on %q: %w", raw.Channel, err)
		}
		if err := security.Authorize(claims, s.requiredRoles...); err != nil {
			s.recordReceive("auth_error")
			return Message{}, fmt.Errorf("broker: message on %q: %w", raw.Channel, err)
		}

		event, ignored, err := envelope.Decode(id, wire.Payload)
		if err != nil {
			s.recordReceive("decode_error")
			return Message{}, fmt.Errorf("broker: decode message on %q: %w", raw.Channel, err)
		}
		if ignored {
			s.logger.Debug("ignoring unknown event type", zap.String("channel", raw.Channel))
			continue
		}

		s.recordReceive("ok")
		return Message{Channel: id, Claims: claims, Event: event}, nil
	}
}

func (s *Subscription) recordReceive(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBrokerReceive(outcome)
	}
}

// Close releases the subscription's underlying connection.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
