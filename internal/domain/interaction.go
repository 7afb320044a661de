package domain

import (
	"strings"
	"time"
)

// EventType classifies a behavioral signal, weakest to strongest.
type EventType string

const (
	EventView      EventType = "view"
	EventClick     EventType = "click"
	EventAddToCart EventType = "add_to_cart"
	EventPurchase  EventType = "purchase"
)

func (t EventType) Valid() bool {
	switch t {
	case EventView, EventClick, EventAddToCart, EventPurchase:
		return true
	}
	return false
}

type ItemType string

const (
	ItemProduct ItemType = "product"
	ItemBlog    ItemType = "blog"
)

func (t ItemType) Valid() bool {
	return t == ItemProduct || t == ItemBlog
}

// Interaction is one immutable behavioral event. Rows are append-only:
// nothing in the service updates or deletes them.
type Interaction struct {
	ID        string
	UserID    string
	EventType EventType
	ItemID    string
	ItemType  ItemType
	Tags      []string
	CreatedAt time.Time
}

func (i *Interaction) Validate() error {
	meta := map[string]string{}
	if strings.TrimSpace(i.UserID) == "" {
		meta["user_id"] = "required"
	}
	if strings.TrimSpace(i.ItemID) == "" {
		meta["item_id"] = "required"
	}
	if !i.EventType.Valid() {
		meta["event_type"] = "must be one of: view, click, add_to_cart, purchase"
	}
	if !i.ItemType.Valid() {
		meta["item_type"] = "must be one of: product, blog"
	}
	if len(meta) > 0 {
		return ErrValidationMeta("invalid interaction", meta)
	}
	return nil
}
