package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod identifies the settlement provider for a checkout.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodBankCheckout PaymentMethod = "bank_checkout"
)

// Transaction status values. Transitions to completed/failed/expired happen
// during reconciliation, after the provider reports an outcome.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusExpired   = "expired"
)

// TierSelection is one priced line item of a checkout. UnitPrice is the
// post-discount price in the event currency.
type TierSelection struct {
	TierID    uuid.UUID `bson:"tier_id" json:"tier_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	UnitPrice float64   `bson:"unit_price" json:"unit_price"`
}

// PendingTransaction is the authoritative settlement-ledger record for one
// checkout attempt. OrderID is the short numeric id embedded in provider
// redirect URLs; InternalOrderID is the globally unique provider-agnostic id
// that webhooks and reconciliation key off of.
type PendingTransaction struct {
	ID               uuid.UUID       `bson:"_id" json:"id"`
	OrderID          string          `bson:"order_id" json:"order_id"`
	InternalOrderID  string          `bson:"internal_order_id" json:"internal_order_id"`
	UserID           string          `bson:"user_id" json:"user_id"`
	EventID          uuid.UUID       `bson:"event_id" json:"event_id"`
	Quantity         int             `bson:"quantity" json:"quantity"`
	Amount           float64         `bson:"amount" json:"amount"`
	Currency         string          `bson:"currency" json:"currency"`
	OriginalCurrency string          `bson:"original_currency" json:"original_currency"`
	OriginalAmount   float64         `bson:"original_amount" json:"original_amount"`
	ExchangeRate     *float64        `bson:"exchange_rate,omitempty" json:"exchange_rate,omitempty"`
	PaymentMethod    PaymentMethod   `bson:"payment_method" json:"payment_method"`
	Status           string          `bson:"status" json:"status"`
	TierSelections   []TierSelection `bson:"tier_selections" json:"tier_selections"`
	PromoCodeID      *uuid.UUID      `bson:"promo_code_id,omitempty" json:"promo_code_id,omitempty"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at"`
}

// TransactionCreatedEvent is published after a pending transaction is
// written to the ledger.
type TransactionCreatedEvent struct {
	EventType       string    `json:"event_type"`
	OrderID         string    `json:"order_id"`
	InternalOrderID string    `json:"internal_order_id"`
	UserID          string    `json:"user_id"`
	EventID         string    `json:"event_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	PaymentMethod   string    `json:"payment_method"`
	Timestamp       time.Time `json:"timestamp"`
}
