// Package protocol defines the WebSocket messages exchanged with the ordering
// client and the kitchen display. Every frame is a flat JSON object with a
// "type" discriminator.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → server
	TypeStartSession MessageType = "start_session"
	TypeAudio        MessageType = "audio" // also server → client

	// Server → client
	TypeError          MessageType = "error"
	TypeShowItems      MessageType = "show_items"
	TypeCartUpdate     MessageType = "cart_update"
	TypeOrderConfirmed MessageType = "order_confirmed"
)

// Protocol violations. The connection is closed when one occurs.
var (
	ErrMalformed    = errors.New("protocol: malformed message")
	ErrMissingAudio = errors.New("protocol: audio message without payload")
	ErrBadAudio     = errors.New("protocol: audio payload is not valid base64")
)

// Message is a single frame in either direction. Only the fields relevant
// to Type are populated.
type Message struct {
	Type MessageType `json:"type"`

	Audio   string         `json:"audio,omitempty"` // base64
	Message string         `json:"message,omitempty"`
	Items   []menu.Item    `json:"items,omitempty"`
	Cart    *cart.Snapshot `json:"cart,omitempty"`
	Order   *OrderData     `json:"order,omitempty"`

	hasAudio bool // "audio" key present on an inbound frame
}

// OrderData is the confirmed order as shown to clients.
type OrderData struct {
	ID     int64       `json:"id"`
	Items  []cart.Line `json:"items"`
	Total  menu.Money  `json:"total"`
	Status string      `json:"status"`
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON frame. Anything that is not a JSON object with
// a string type is ErrMalformed.
func ParseMessage(data []byte) (*Message, error) {
	type alias Message
	var msg Message
	aux := struct {
		*alias
		Audio *string `json:"audio"`
	}{alias: (*alias)(&msg)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	if aux.Audio != nil {
		msg.Audio = *aux.Audio
		msg.hasAudio = true
	}
	return &msg, nil
}

// DecodeAudio returns the raw bytes of an audio message. An empty payload
// decodes to zero bytes; only a missing or null "audio" key is ErrMissingAudio.
func (m *Message) DecodeAudio() ([]byte, error) {
	if m.Audio == "" && !m.hasAudio {
		return nil, ErrMissingAudio
	}
	b, err := base64.StdEncoding.DecodeString(m.Audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadAudio, err)
	}
	return b, nil
}
