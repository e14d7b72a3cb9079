package domain

// Kind classifies a component by its position in the line.
type Kind string

const (
	KindEmitter  Kind = "EMITTER"
	KindChannel  Kind = "CHANNEL"
	KindRelay    Kind = "RELAY"
	KindReceiver Kind = "RECEIVER"
)

// Identity names a component. IDs are stable for the lifetime of the component.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}
