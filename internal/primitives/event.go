// Event is the input to a machine: a name plus an optional payload.
//
// Events are value types; the engine never mutates a payload it receives and
// actions see a read-only view of it.
package primitives

// Event names a UI interaction and carries its optional payload.
type Event struct {
	Name    string         `json:"name" yaml:"name"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// NewEvent creates an Event. A nil payload is valid.
func NewEvent(name string, payload map[string]any) Event {
	return Event{
		Name:    name,
		Payload: payload,
	}
}

// PayloadValue returns the payload field under key.
func (e Event) PayloadValue(key string) (any, bool) {
	if e.Payload == nil {
		return nil, false
	}
	v, ok := e.Payload[key]
	return v, ok
}
