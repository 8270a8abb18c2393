package services

import (
	"fmt"
	"net/http"
	"strings"

	"payments-service/config"
	"payments-service/models"

	"go.uber.org/zap"
)

// haitiLocationHints are matched against free-text location fields of legacy
// event documents that predate the structured country field. Do not extend
// this list without product sign-off.
var haitiLocationHints = []string{"haiti", "port-au-prince", "cap-haitien"}

// ProviderRouter maps an event to the payment provider that must settle it.
type ProviderRouter struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewProviderRouter(cfg *config.Config, logger *zap.Logger) *ProviderRouter {
	return &ProviderRouter{cfg: cfg, logger: logger}
}

// ResolveCountry normalizes the event's country. An explicit country code
// wins; otherwise HTG pricing implies Haiti; otherwise the legacy free-text
// heuristic is applied as a last resort. Returns "" when nothing matches.
func (r *ProviderRouter) ResolveCountry(event *models.Event) string {
	if country := strings.ToUpper(strings.TrimSpace(event.Country)); country != "" {
		if country == "HAITI" {
			return "HT"
		}
		return country
	}
	if strings.EqualFold(event.Currency, "HTG") {
		return "HT"
	}
	if matchesHaitiHint(event.City, event.Address, event.Venue) {
		r.logger.Debug("country inferred from legacy location fields",
			zap.String("event_id", event.ID.String()),
		)
		return "HT"
	}
	return ""
}

// SelectProvider computes the provider for the event and reconciles it with
// the provider the client requested. A mismatch rejects the checkout instead
// of silently switching providers, and a routed provider that is not
// configured fails rather than falling back to another one.
func (r *ProviderRouter) SelectProvider(event *models.Event, requested models.PaymentMethod) (models.PaymentMethod, *ServiceError) {
	country := r.ResolveCountry(event)
	allowed := allowedProviders(country)

	routed := allowed[0]
	if requested != "" {
		if !containsProvider(allowed, requested) {
			return "", &ServiceError{
				StatusCode: http.StatusConflict,
				Message:    fmt.Sprintf("Payment method %s is not available for this event", requested),
			}
		}
		routed = requested
	}

	if svcErr := r.checkConfigured(routed); svcErr != nil {
		return "", svcErr
	}

	r.logger.Info("payment provider selected",
		zap.String("event_id", event.ID.String()),
		zap.String("country", country),
		zap.String("provider", string(routed)),
	)
	return routed, nil
}

// allowedProviders returns the providers that may settle an event in the
// given country, most preferred first.
func allowedProviders(country string) []models.PaymentMethod {
	if country == "HT" {
		return []models.PaymentMethod{models.PaymentMethodMobileMoney, models.PaymentMethodBankCheckout}
	}
	return []models.PaymentMethod{models.PaymentMethodCard}
}

func (r *ProviderRouter) checkConfigured(provider models.PaymentMethod) *ServiceError {
	var configured bool
	switch provider {
	case models.PaymentMethodCard:
		configured = r.cfg.CardConfigured()
	case models.PaymentMethodMobileMoney:
		configured = r.cfg.MobileMoneyConfigured()
	case models.PaymentMethodBankCheckout:
		configured = r.cfg.BankCheckoutConfigured()
	}
	if !configured {
		return &ServiceError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    fmt.Sprintf("Payment provider %s is not configured", provider),
		}
	}
	return nil
}

func containsProvider(providers []models.PaymentMethod, p models.PaymentMethod) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

func matchesHaitiHint(fields ...string) bool {
	for _, field := range fields {
		lowered := strings.ToLower(field)
		for _, hint := range haitiLocationHints {
			if strings.Contains(lowered, hint) {
				return true
			}
		}
	}
	return false
}
