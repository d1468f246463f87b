package protocol

import (
	"encoding/base64"

	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/menu"
	"github.com/teslashibe/go-drivethru/pkg/order"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewStartSessionMessage creates the client's opening frame
func NewStartSessionMessage() *Message {
	return &Message{Type: TypeStartSession}
}

// NewAudioMessage wraps encoded audio in either direction
func NewAudioMessage(audio []byte) *Message {
	return &Message{
		Type:  TypeAudio,
		Audio: base64.StdEncoding.EncodeToString(audio),
	}
}

// NewErrorMessage creates an error notice
func NewErrorMessage(text string) *Message {
	return &Message{Type: TypeError, Message: text}
}

// NewShowItemsMessage lists catalog items to display
func NewShowItemsMessage(items []menu.Item) *Message {
	return &Message{Type: TypeShowItems, Items: items}
}

// NewCartUpdateMessage carries the full cart state
func NewCartUpdateMessage(snap cart.Snapshot) *Message {
	if snap.Items == nil {
		snap.Items = []cart.Line{}
	}
	return &Message{Type: TypeCartUpdate, Cart: &snap}
}

// NewOrderConfirmedMessage announces a finalized order
func NewOrderConfirmedMessage(o order.Order) *Message {
	items := o.Items
	if items == nil {
		items = []cart.Line{}
	}
	return &Message{
		Type: TypeOrderConfirmed,
		Order: &OrderData{
			ID:     o.ID,
			Items:  items,
			Total:  o.Total,
			Status: o.Status,
		},
	}
}
