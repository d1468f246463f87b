package session

import (
	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/menu"
	"github.com/teslashibe/go-drivethru/pkg/order"
)

// EventType identifies an outbound session event.
type EventType string

const (
	EventAudio          EventType = "audio"
	EventError          EventType = "error"
	EventShowItems      EventType = "show_items"
	EventCartUpdate     EventType = "cart_update"
	EventOrderConfirmed EventType = "order_confirmed"
)

// Event is something the session wants delivered to the client.
// Only the fields relevant to Type are set.
type Event struct {
	Type EventType

	Audio   []byte
	Message string
	Items   []menu.Item
	Cart    cart.Snapshot
	Order   *order.Order
}

// Emitter delivers events to the client. Implementations must not block
// for long; the session calls Emit from its turn goroutine.
type Emitter interface {
	Emit(Event)
}

// EmitFunc adapts a function to Emitter.
type EmitFunc func(Event)

// Emit calls f(ev).
func (f EmitFunc) Emit(ev Event) { f(ev) }
