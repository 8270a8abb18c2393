package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"payments-service/models"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const (
	mobileMoneyTokenPath    = "/Api/oauth/token"
	mobileMoneyPaymentPath  = "/MerChantApi/V1/Payment"
	mobileMoneyInitiatePath = "/MerChantApi/V1/InitiatePayment"
	mobileMoneyCheckPath    = "/MerChantApi/V1/CheckPayment"

	// Safety margins subtracted from the token lifetime so a token is never
	// used right at its expiry boundary.
	jwtExpiryMargin      = 60 * time.Second
	declaredExpiryMargin = 100 * time.Second
)

// MobileMoneyConfig configures a MobileMoneyClient. Clock and HTTPClient are
// optional and default to time.Now and a 10s-timeout client.
type MobileMoneyConfig struct {
	ClientID   string
	SecretKey  string
	BaseURL    string
	Clock      func() time.Time
	HTTPClient *http.Client
}

// MobileMoneyClient talks to the mobile-money provider's merchant payment
// API. It owns a process-wide access-token cache refreshed through the OAuth
// client-credentials grant; a token rejected as expired is refreshed exactly
// once per call.
type MobileMoneyClient struct {
	clientID   string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewMobileMoneyClient(cfg MobileMoneyConfig, logger *zap.Logger) *MobileMoneyClient {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MobileMoneyClient{
		clientID:   cfg.ClientID,
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		now:        clock,
	}
}

// CreatePayment creates a merchant payment synchronously and returns the
// provider's result.
func (c *MobileMoneyClient) CreatePayment(ctx context.Context, reference, account string, amount float64) (*models.MobileMoneyPaymentResult, error) {
	return c.postPayment(ctx, mobileMoneyPaymentPath, paymentPayload(reference, account, amount))
}

// InitiatePayment starts an asynchronous payment; its status is retrieved
// later via CheckPayment.
func (c *MobileMoneyClient) InitiatePayment(ctx context.Context, reference, account string, amount float64) (*models.MobileMoneyPaymentResult, error) {
	return c.postPayment(ctx, mobileMoneyInitiatePath, paymentPayload(reference, account, amount))
}

// CheckPayment looks up a payment by transaction id or reference. Exactly one
// of the two should be set.
func (c *MobileMoneyClient) CheckPayment(ctx context.Context, transactionID, reference string) (*models.MobileMoneyPaymentResult, error) {
	payload := map[string]string{}
	if transactionID != "" {
		payload["transactionId"] = transactionID
	} else {
		payload["reference"] = reference
	}
	return c.postPayment(ctx, mobileMoneyCheckPath, payload)
}

func paymentPayload(reference, account string, amount float64) map[string]interface{} {
	return map[string]interface{}{
		"reference": reference,
		"account":   account,
		"amount":    formatAmount(amount),
	}
}

// formatAmount serializes an amount with exactly two decimal places
// regardless of locale.
func formatAmount(amount float64) json.Number {
	rounded := math.Round(amount*100) / 100
	return json.Number(strconv.FormatFloat(rounded, 'f', 2, 64))
}

func (c *MobileMoneyClient) postPayment(ctx context.Context, path string, payload interface{}) (*models.MobileMoneyPaymentResult, error) {
	var result *models.MobileMoneyPaymentResult
	err := c.withTokenRefreshRetry(ctx, func(token string) error {
		res, err := c.doPost(ctx, token, path, payload)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withTokenRefreshRetry runs fn with a valid access token. When the provider
// rejects the token as invalid or expired, the cache is invalidated and fn is
// retried exactly once with a fresh token; a second rejection is terminal.
func (c *MobileMoneyClient) withTokenRefreshRetry(ctx context.Context, fn func(token string) error) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	err = fn(token)
	var authErr *authExpiredError
	if !errors.As(err, &authErr) {
		return err
	}

	c.logger.Warn("mobile money token rejected, refreshing once")
	c.invalidateToken()

	token, err = c.getToken(ctx)
	if err != nil {
		return err
	}
	return fn(token)
}

func (c *MobileMoneyClient) doPost(ctx context.Context, token, path string, payload interface{}) (*models.MobileMoneyPaymentResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mobile money request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		respBody, _ := io.ReadAll(resp.Body)
		if tokenRejected(respBody) {
			return nil, &authExpiredError{body: string(respBody)}
		}
		return nil, fmt.Errorf("mobile money returned 401: %s", string(respBody))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mobile money returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result models.MobileMoneyPaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode mobile money response: %w", err)
	}
	return &result, nil
}

// getToken returns the cached access token, fetching a new one when the cache
// is empty or past its expiry.
func (c *MobileMoneyClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	token, expiry, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.tokenExpiry = expiry
	return token, nil
}

func (c *MobileMoneyClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *MobileMoneyClient) fetchToken(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "read,write")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+mobileMoneyTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("mobile money token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("mobile money token endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("mobile money token response missing access_token")
	}

	expiry := c.tokenExpiryFor(body.AccessToken, body.ExpiresIn)
	c.logger.Info("mobile money access token refreshed",
		zap.Time("expires_at", expiry),
	)
	return body.AccessToken, expiry, nil
}

// tokenExpiryFor derives the cache expiry for a token. When the token is a
// JWT the exp claim is authoritative; otherwise the declared expires_in is
// used. Both get a safety margin.
func (c *MobileMoneyClient) tokenExpiryFor(token string, expiresIn int64) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err == nil {
		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			if exp, ok := claims["exp"].(float64); ok && exp > 0 {
				return time.Unix(int64(exp), 0).Add(-jwtExpiryMargin)
			}
		}
	}
	return c.now().Add(time.Duration(expiresIn)*time.Second - declaredExpiryMargin)
}

// authExpiredError marks a 401 whose body identifies an invalid or expired
// access token; it triggers the single forced refresh.
type authExpiredError struct {
	body string
}

func (e *authExpiredError) Error() string {
	return "mobile money access token rejected: " + e.body
}

func tokenRejected(body []byte) bool {
	lowered := strings.ToLower(string(body))
	return strings.Contains(lowered, "invalid_token") || strings.Contains(lowered, "expired")
}
