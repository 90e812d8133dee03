package draft

import "tcgp-draft-server/catalog"

// Event is a side effect produced by a draft transition. The room delivers
// events; the draft never touches a connection.
type Event interface {
	isEvent()
}

// RoundStarted announces the round number to the whole table.
type RoundStarted struct {
	Round int
}

// PackReceived hands a pack to one seat.
type PackReceived struct {
	Round int
	Pack  Pack
}

// Completed carries every final hand, keyed by seat name, plus seat order.
type Completed struct {
	Hands map[string][]*catalog.Item
	Order []string
}

func (RoundStarted) isEvent() {}
func (PackReceived) isEvent() {}
func (Completed) isEvent()    {}

// Output addresses an event to one seat, or to everyone when Broadcast is set.
type Output struct {
	Recipient string
	Broadcast bool
	Event     Event
}

func broadcast(e Event) Output { return Output{Broadcast: true, Event: e} }

func to(name string, e Event) Output { return Output{Recipient: name, Event: e} }
