package models

// SelectionInput is a requested tier + quantity in a checkout payload.
type SelectionInput struct {
	TierID   string `json:"tier_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CheckoutRequest is the payload for POST /checkout. Selections may be empty,
// in which case a single general-admission ticket at the event base price is
// assumed. PaymentMethod is optional; when present it must match the provider
// the router computes for the event.
type CheckoutRequest struct {
	EventID       string           `json:"event_id" binding:"required"`
	Selections    []SelectionInput `json:"selections"`
	PromoCode     string           `json:"promo_code"`
	PaymentMethod string           `json:"payment_method" binding:"omitempty,oneof=card mobile_money bank_checkout"`
	// Account is the customer's mobile-money account (phone number);
	// required only for mobile-money settlement.
	Account string `json:"account"`
	// Async selects the initiate-now-poll-later mobile-money flow instead of
	// the synchronous create call.
	Async bool `json:"async"`
}

// CheckoutResponse carries the payable artifact for the selected provider:
// a card client secret, a mobile-money payment result, or a hosted-checkout
// redirect URL.
type CheckoutResponse struct {
	OrderID         string  `json:"order_id"`
	InternalOrderID string  `json:"internal_order_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	PaymentMethod   string  `json:"payment_method"`

	ClientSecret string                    `json:"client_secret,omitempty"`
	Payment      *MobileMoneyPaymentResult `json:"payment,omitempty"`
	RedirectURL  string                    `json:"redirect_url,omitempty"`
}

// MobileMoneyPaymentResult is the normalized provider response for a
// mobile-money payment.
type MobileMoneyPaymentResult struct {
	TransactionID string  `json:"transactionId"`
	Reference     string  `json:"reference"`
	Status        string  `json:"status,omitempty"`
	Message       string  `json:"message,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Account       string  `json:"account,omitempty"`
	Timestamp     string  `json:"timestamp,omitempty"`
}
