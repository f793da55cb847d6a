// Package bot contains the command/event dispatch core: the classifier that
// turns raw message text into typed commands, and the dispatcher that runs
// handlers, awaits fetchers and the store, and serializes replies through a
// single ordered sink.
package bot

// EventKind discriminates the normalized protocol events the core consumes.
type EventKind int

const (
	EventMessage EventKind = iota
	EventKick
	EventInvite
	EventQuit
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventKick:
		return "kick"
	case EventInvite:
		return "invite"
	case EventQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Event is one normalized protocol event. The transport guarantees Source and
// Target are non-empty before handing it to the core.
type Event struct {
	OwnNick string
	Source  string
	Target  string
	Text    string
	Kind    EventKind
}

// Reply is one outbound line. The transport drains these in submission order.
type Reply struct {
	Target string
	Text   string
}
