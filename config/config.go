package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all runtime configuration for the payments service. Provider
// credentials are optional: a missing credential disables that provider (or
// rate source) instead of failing startup.
type Config struct {
	Port string
	Env  string

	MongoURI string
	MongoDB  string

	// Card processor (Stripe). The key doubles as the credential for the
	// card-provider exchange-rate source.
	StripeSecretKey string
	StripeAPIBase   string

	// FX rate sources for the HTG->USD fallback chain.
	FXRateAPIBase string
	OpenFXAppID   string
	OpenFXAPIBase string

	// Mobile-money provider (OAuth client-credentials).
	MobileMoneyClientID string
	MobileMoneySecret   string
	MobileMoneyMode     string // sandbox | production
	MobileMoneyBaseURL  string // optional override, mode picks the default

	// Bank-hosted checkout.
	BankCheckoutEnabled bool
	BankCheckoutBaseURL string

	// Optional SNS eventing.
	AWSRegion          string
	PaymentSNSTopicARN string
}

// LoadConfig reads configuration from the environment. Only the record store
// settings are mandatory.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("APP_ENV", "development"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "ticketing"),

		StripeSecretKey: os.Getenv("STRIPE_API_KEY"),
		StripeAPIBase:   getEnv("STRIPE_API_BASE", "https://api.stripe.com"),

		FXRateAPIBase: getEnv("FX_RATE_API_BASE", "https://api.exchangerate-api.com"),
		OpenFXAppID:   os.Getenv("OPEN_FX_APP_ID"),
		OpenFXAPIBase: getEnv("OPEN_FX_API_BASE", "https://openexchangerates.org/api/latest.json"),

		MobileMoneyClientID: os.Getenv("MOBILE_MONEY_CLIENT_ID"),
		MobileMoneySecret:   os.Getenv("MOBILE_MONEY_SECRET_KEY"),
		MobileMoneyMode:     getEnv("MOBILE_MONEY_MODE", "sandbox"),
		MobileMoneyBaseURL:  os.Getenv("MOBILE_MONEY_BASE_URL"),

		BankCheckoutEnabled: getBoolEnv("BANK_CHECKOUT_ENABLED"),
		BankCheckoutBaseURL: os.Getenv("BANK_CHECKOUT_BASE_URL"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	return cfg, nil
}

// CardConfigured reports whether the card processor can be used.
func (c *Config) CardConfigured() bool {
	return c.StripeSecretKey != ""
}

// MobileMoneyConfigured reports whether the mobile-money provider can be used.
func (c *Config) MobileMoneyConfigured() bool {
	return c.MobileMoneyClientID != "" && c.MobileMoneySecret != ""
}

// BankCheckoutConfigured reports whether hosted bank checkout can be used.
func (c *Config) BankCheckoutConfigured() bool {
	return c.BankCheckoutEnabled && c.BankCheckoutBaseURL != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBoolEnv(key string) bool {
	val := strings.ToLower(os.Getenv(key))
	return val == "true" || val == "1" || val == "yes"
}
