package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is the slice of the event document this service reads. Events are
// owned by the event-management service and are immutable for the duration of
// a checkout.
type Event struct {
	ID        uuid.UUID `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Currency  string    `bson:"currency" json:"currency"`
	Country   string    `bson:"country,omitempty" json:"country,omitempty"`
	City      string    `bson:"city,omitempty" json:"city,omitempty"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	Venue     string    `bson:"venue,omitempty" json:"venue,omitempty"`
	BasePrice float64   `bson:"base_price" json:"base_price"`
}

// TicketTier is a priced inventory bucket within an event.
type TicketTier struct {
	ID            uuid.UUID  `bson:"_id" json:"id"`
	EventID       uuid.UUID  `bson:"event_id" json:"event_id"`
	Name          string     `bson:"name" json:"name"`
	UnitPrice     float64    `bson:"unit_price" json:"unit_price"`
	TotalQuantity int        `bson:"total_quantity" json:"total_quantity"`
	SoldQuantity  int        `bson:"sold_quantity" json:"sold_quantity"`
	SalesStart    *time.Time `bson:"sales_start,omitempty" json:"sales_start,omitempty"`
	SalesEnd      *time.Time `bson:"sales_end,omitempty" json:"sales_end,omitempty"`
	// IsActive is a tri-state flag on legacy documents; nil means active.
	IsActive *bool `bson:"is_active,omitempty" json:"is_active,omitempty"`
}

// Remaining returns the sellable quantity left on the tier, never negative.
func (t *TicketTier) Remaining() int {
	remaining := t.TotalQuantity - t.SoldQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Active reports whether the tier is on sale at all.
func (t *TicketTier) Active() bool {
	return t.IsActive == nil || *t.IsActive
}
