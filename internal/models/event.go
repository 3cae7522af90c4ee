package models

import "time"

// Routing keys of catalog change notifications.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEvent notifies listeners that a product changed.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  int       `json:"productId"`
	Product    *Product  `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
