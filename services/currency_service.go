package services

import (
	"context"
	"strings"
	"time"

	"payments-service/config"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// fallbackHTGToUSDRate is the hardcoded floor used when every rate source
// fails. Roughly 131.58 HTG per USD.
const fallbackHTGToUSDRate = 0.0076

// RateSnapshot is the outcome of one rate resolution. It is consumed
// immediately by pricing and never persisted on its own; the rate itself is
// copied onto the ledger record.
type RateSnapshot struct {
	Rate       float64
	Source     string
	ResolvedAt time.Time
}

// CurrencyService resolves a trustworthy HTG->USD exchange rate from an
// ordered chain of external sources and exposes conversion and formatting
// helpers on top of it.
type CurrencyService struct {
	sources []RateSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewCurrencyService builds the resolution chain from configuration. Sources
// whose credential is absent are left out of the chain entirely, so no call
// is ever attempted against them.
func NewCurrencyService(cfg *config.Config, logger *zap.Logger) *CurrencyService {
	httpClient := newRateSourceHTTPClient()

	var sources []RateSource
	if cfg.StripeSecretKey != "" {
		sources = append(sources, &stripeRateSource{
			baseURL:    cfg.StripeAPIBase,
			apiKey:     cfg.StripeSecretKey,
			httpClient: httpClient,
		})
	}
	sources = append(sources, &fxRateSource{
		baseURL:    cfg.FXRateAPIBase,
		httpClient: httpClient,
	})
	if cfg.OpenFXAppID != "" {
		sources = append(sources, &openFXRateSource{
			baseURL:    cfg.OpenFXAPIBase,
			appID:      cfg.OpenFXAppID,
			httpClient: httpClient,
		})
	}

	return &CurrencyService{
		sources: sources,
		logger:  logger,
		now:     time.Now,
	}
}

// NewCurrencyServiceWithSources builds a service over an explicit source
// chain.
func NewCurrencyServiceWithSources(sources []RateSource, logger *zap.Logger) *CurrencyService {
	return &CurrencyService{sources: sources, logger: logger, now: time.Now}
}

// Resolve walks the source chain in order and returns the first usable rate,
// falling back to the hardcoded floor when every source fails. It never
// returns an error.
func (s *CurrencyService) Resolve(ctx context.Context) RateSnapshot {
	for _, source := range s.sources {
		rate, err := source.Fetch(ctx)
		if err != nil {
			s.logger.Warn("rate source failed",
				zap.String("source", source.Name()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("exchange rate resolved",
			zap.String("source", source.Name()),
			zap.Float64("htg_to_usd", rate),
		)
		return RateSnapshot{Rate: rate, Source: source.Name(), ResolvedAt: s.now()}
	}

	s.logger.Warn("all rate sources failed, using fallback rate",
		zap.Float64("htg_to_usd", fallbackHTGToUSDRate),
	)
	return RateSnapshot{Rate: fallbackHTGToUSDRate, Source: "fallback", ResolvedAt: s.now()}
}

// ResolveHTGToUSDRate returns the current HTG->USD rate. Always usable.
func (s *CurrencyService) ResolveHTGToUSDRate(ctx context.Context) float64 {
	return s.Resolve(ctx).Rate
}

// Convert converts an amount between currencies, resolving the rate when the
// conversion crosses the HTG/USD pair. Same-currency conversion is the
// identity.
func (s *CurrencyService) Convert(ctx context.Context, amount float64, from, to string) float64 {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount
	}
	return ConvertWithRate(amount, from, to, s.Resolve(ctx).Rate)
}

// SupportedConversion reports whether an amount can be converted between the
// two currencies off the HTG->USD rate. Same-currency conversion is always
// supported.
func SupportedConversion(from, to string) bool {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return true
	}
	return (from == "HTG" && to == "USD") || (from == "USD" && to == "HTG")
}

// ConvertWithRate converts an amount using an already-resolved HTG->USD rate.
// Pure and linear in the amount; unsupported pairs pass through unchanged, so
// callers gate on SupportedConversion first.
func ConvertWithRate(amount float64, from, to string, htgToUSD float64) float64 {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	switch {
	case from == to:
		return amount
	case from == "HTG" && to == "USD":
		return amount * htgToUSD
	case from == "USD" && to == "HTG":
		return amount / htgToUSD
	default:
		return amount
	}
}

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"HTG": "G",
}

var englishPrinter = message.NewPrinter(language.English)

// FormatCurrency renders an amount with two decimal places, thousands
// separators, and a currency symbol and suffix: "$1,234.56 USD",
// "G13,158.00 HTG". An empty currency defaults to USD.
func FormatCurrency(amount float64, currency string) string {
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = "USD"
	}
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = "$"
	}
	return englishPrinter.Sprintf("%s%.2f %s", symbol, amount, currency)
}
