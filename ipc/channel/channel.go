// Package channel parses and formats the fabric's four-field structured
// channel identifier: <literal>:<source>:<destination>:<event>. Grounded on
// original_source's src/modules/ipc/redis_pubsub.rs, which hardcodes the
// same "intellirouter:{source}:{destination}:{event}" layout.
package channel

import "strings"

// Literal is the fixed leading segment identifying the fabric.
const Literal = "intellirouter"

// Separator joins the four segments.
const Separator = ":"

// ID is a parsed four-field channel identifier.
type ID struct {
	Source      string
	Destination string
	Event       string
}

// Format renders (source, destination, event) as a wire channel name. It is
// infallible: callers are responsible for not embedding Separator in any
// segment (see Valid).
func Format(source, destination, event string) string {
	return strings.Join([]string{Literal, source, destination, event}, Separator)
}

// String renders id using Format.
func (id ID) String() string {
	return Format(id.Source, id.Destination, id.Event)
}

// Valid reports whether none of the three user segments contain the
// separator character, which would make the encoding ambiguous.
func (id ID) Valid() bool {
	return !strings.Contains(id.Source, Separator) &&
		!strings.Contains(id.Destination, Separator) &&
		!strings.Contains(id.Event, Separator)
}

// Parse splits s into its four segments. It succeeds only if s splits into
// exactly four non-empty segments and the first equals Literal; otherwise
// ok is false.
func Parse(s string) (id ID, ok bool) {
	parts := strings.Split(s, Separator)
	if len(parts) != 4 {
		return ID{}, false
	}
	for _, p := range parts {
		if p == "" {
			return ID{}, false
		}
	}
	if parts[0] != Literal {
		return ID{}, false
	}
	return ID{Source: parts[1], Destination: parts[2], Event: parts[3]}, true
}

// Pattern builds a pattern-subscribe string for (source, destination) with
// the event segment replaced by a single-segment wildcard, suitable for a
// broker's PSUBSCRIBE-style glob matching.
func Pattern(source, destination string) string {
	return strings.Join([]string{Literal, source, destination, "*"}, Separator)
}
