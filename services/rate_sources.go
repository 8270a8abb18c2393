package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RateSource is one link in the HTG->USD resolution chain. Fetch returns the
// normalized HTG->USD rate or an error; any error means "try the next
// source".
type RateSource interface {
	Name() string
	Fetch(ctx context.Context) (float64, error)
}

// rateSourceTimeout bounds every rate-source call so the fallback chain
// cannot stall.
const rateSourceTimeout = 5 * time.Second

func newRateSourceHTTPClient() *http.Client {
	return &http.Client{Timeout: rateSourceTimeout}
}

// stripeRateSource reads the card processor's exchange-rate endpoint for an
// HTG base. Response shape: {"rates": {"usd": 0.0078}}.
type stripeRateSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func (s *stripeRateSource) Name() string { return "stripe" }

func (s *stripeRateSource) Fetch(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/v1/exchange_rates/HTG", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("stripe rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("stripe rate endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		Rates struct {
			USD float64 `json:"usd"`
		} `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if body.Rates.USD <= 0 {
		return 0, fmt.Errorf("stripe rate response missing usd rate")
	}
	return body.Rates.USD, nil
}

// fxRateSource reads a public HTG-base rate endpoint. Response shape:
// {"rates": {"USD": 0.0077, ...}}.
type fxRateSource struct {
	baseURL    string
	httpClient *http.Client
}

func (s *fxRateSource) Name() string { return "exchangerate-api" }

func (s *fxRateSource) Fetch(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/v4/latest/HTG", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fx rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("fx rate endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	rate := body.Rates["USD"]
	if rate <= 0 {
		return 0, fmt.Errorf("fx rate response missing USD rate")
	}
	return rate, nil
}

// openFXRateSource reads a USD-base rate endpoint and inverts the HTG rate to
// normalize to HTG->USD. Response shape: {"rates": {"HTG": 130.5, ...}}.
type openFXRateSource struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

func (s *openFXRateSource) Name() string { return "openexchangerates" }

func (s *openFXRateSource) Fetch(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s?app_id=%s", s.baseURL, s.appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("open fx rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("open fx rate endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	usdToHTG := body.Rates["HTG"]
	if usdToHTG <= 0 {
		return 0, fmt.Errorf("open fx rate response missing HTG rate")
	}
	return 1 / usdToHTG, nil
}
