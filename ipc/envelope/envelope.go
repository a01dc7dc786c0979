// Package envelope implements the fabric's message envelope codec (C7): it
// serializes domain events to bytes and, given a received (channel,
// payload) pair, decodes the payload into the typed closed-union variant
// for that channel's edge. All payloads are encoded with encoding/json,
// which is self-describing for field names, matching every persistence and
// broker file in the teacher repo (e.g. agent/persistence/redis_message_store.go).
package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/intellirouter/fabric/ipc/channel"
)

// Event is implemented by every domain event variant in every edge family.
type Event interface {
	// EventType returns the channel event segment this variant encodes
	// under, e.g. "chain_execution_completed".
	EventType() string
}

// Encode serializes a domain event to its wire bytes.
func Encode(event Event) ([]byte, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("envelope: encode %s: %w", event.EventType(), err)
	}
	return b, nil
}

// Decode parses payload into the typed variant for id's edge, dispatching
// on id.Event. Unknown event types are reported via ignored=true rather
// than an error: "unknown event types MUST NOT error the stream."
func Decode(id channel.ID, payload []byte) (event Event, ignored bool, err error) {
	decodeFn, ok := registry[edgeKey{id.Source, id.Destination}][id.Event]
	if !ok {
		return nil, true, nil
	}
	event, err = decodeFn(payload)
	if err != nil {
		return nil, false, err
	}
	return event, false, nil
}

type edgeKey struct {
	source      string
	destination string
}

type decodeFunc func(payload []byte) (Event, error)

var registry = map[edgeKey]map[string]decodeFunc{}

func register(source, destination, eventType string, fn decodeFunc) {
	key := edgeKey{source, destination}
	if registry[key] == nil {
		registry[key] = map[string]decodeFunc{}
	}
	registry[key][eventType] = fn
}

// rawFields unmarshals payload into a field-presence map so decoders can
// reject payloads with missing required attributes before the strongly
// typed json.Unmarshal, which only catches type mismatches, runs.
func rawFields(payload []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("envelope: malformed payload: %w", err)
	}
	return raw, nil
}

func requireFields(raw map[string]json.RawMessage, fields ...string) error {
	for _, f := range fields {
		if _, ok := raw[f]; !ok {
			return fmt.Errorf("envelope: missing required attribute %q", f)
		}
	}
	return nil
}

func decodeStrict[T Event](payload []byte, required ...string) (Event, error) {
	raw, err := rawFields(payload)
	if err != nil {
		return nil, err
	}
	if err := requireFields(raw, required...); err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("envelope: decode %T: %w", v, err)
	}
	return v, nil
}
