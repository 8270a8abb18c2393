package services

import (
	"net/http"
	"net/url"
)

// BankCheckoutClient builds redirect URLs for the bank-hosted checkout page.
// It never confirms payment; the caller awaits the provider callback against
// the pending transaction.
type BankCheckoutClient struct {
	enabled bool
	baseURL string
}

func NewBankCheckoutClient(enabled bool, baseURL string) *BankCheckoutClient {
	return &BankCheckoutClient{enabled: enabled, baseURL: baseURL}
}

// BuildRedirectURL returns the hosted-checkout redirect target for an order.
// Fails fast with a configuration error when the provider is disabled or has
// no base URL; no URL format is ever guessed.
func (c *BankCheckoutClient) BuildRedirectURL(orderID, eventID string) (string, *ServiceError) {
	if !c.enabled {
		return "", &ServiceError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Bank checkout is not enabled",
		}
	}
	if c.baseURL == "" {
		return "", &ServiceError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Bank checkout base URL is not configured",
		}
	}

	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", &ServiceError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Bank checkout base URL is invalid",
		}
	}

	query := parsed.Query()
	query.Set("orderId", orderID)
	query.Set("eventId", eventID)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
