package dto

import "time"

// InteractionReq is the POST /interactions body.
type InteractionReq struct {
	UserID    string   `json:"user_id" validate:"required"`
	EventType string   `json:"event_type" validate:"required,oneof=view click add_to_cart purchase"`
	ItemID    string   `json:"item_id" validate:"required"`
	ItemType  string   `json:"item_type" validate:"required,oneof=product blog"`
	Tags      []string `json:"tags,omitempty"`
}

// InteractionResp mirrors the stored row.
type InteractionResp struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventType string    `json:"event_type"`
	ItemID    string    `json:"item_id"`
	ItemType  string    `json:"item_type"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}
