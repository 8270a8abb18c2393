package services_test

import (
	"context"
	"net/http"
	"testing"

	"payments-service/config"
	"payments-service/models"
	"payments-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type checkoutFixture struct {
	events      *mockEventRepo
	promos      *mockPromoRepo
	txns        *mockTxnRepo
	card        *mockCardProcessor
	mobileMoney *mockMobileMoneyGateway
	publisher   *mockPublisher
	svc         *services.CheckoutService
}

func newCheckoutFixture(cfg *config.Config) *checkoutFixture {
	logger, _ := zap.NewDevelopment()

	f := &checkoutFixture{
		events:      newMockEventRepo(),
		promos:      newMockPromoRepo(),
		txns:        newMockTxnRepo(),
		card:        &mockCardProcessor{},
		mobileMoney: &mockMobileMoneyGateway{},
		publisher:   &mockPublisher{},
	}

	f.svc = services.NewCheckoutService(services.CheckoutServiceDeps{
		Events:       f.events,
		Transactions: f.txns,
		Router:       services.NewProviderRouter(cfg, logger),
		Inventory:    services.NewInventoryService(f.events, logger),
		Pricing:      services.NewPricingService(f.promos, logger),
		Currency:     services.NewCurrencyServiceWithSources(nil, logger),
		Card:         f.card,
		MobileMoney:  f.mobileMoney,
		BankCheckout: services.NewBankCheckoutClient(cfg.BankCheckoutEnabled, cfg.BankCheckoutBaseURL),
		Publisher:    f.publisher,
		TopicARN:     "arn:aws:sns:us-east-1:000000000000:payment-events",
		Logger:       logger,
	})
	return f
}

func (f *checkoutFixture) seedEvent(event *models.Event) {
	f.events.events[event.ID] = event
}

func TestCheckout_CardFlow(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "USD", Country: "US", BasePrice: 50}
	f.seedEvent(event)
	tier := seedTier(f.events, event, 100, 0)
	tier.UnitPrice = 50

	resp, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID:    event.ID.String(),
		Selections: []models.SelectionInput{{TierID: tier.ID.String(), Quantity: 2}},
	})

	assert.Nil(t, svcErr)
	assert.Equal(t, "card", resp.PaymentMethod)
	assert.NotEmpty(t, resp.ClientSecret)
	assert.Equal(t, 100.0, resp.Amount)
	assert.Equal(t, "USD", resp.Currency)

	assert.Len(t, f.txns.created, 1)
	txn := f.txns.created[0]
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.Equal(t, "user-1", txn.UserID)
	assert.Equal(t, 2, txn.Quantity)
	assert.Equal(t, "USD", txn.OriginalCurrency)
	assert.Equal(t, 100.0, txn.OriginalAmount)
	assert.Nil(t, txn.ExchangeRate, "same-currency settlement records no rate")
	assert.NotEmpty(t, txn.OrderID)
	assert.NotEmpty(t, txn.InternalOrderID)
	assert.NotEqual(t, txn.OrderID, txn.InternalOrderID)

	assert.Len(t, f.publisher.published, 1)
}

func TestCheckout_MobileMoneyFlow(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "HTG", BasePrice: 500}
	f.seedEvent(event)

	resp, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: event.ID.String(),
		Account: "50912345678",
	})

	assert.Nil(t, svcErr)
	assert.Equal(t, "mobile_money", resp.PaymentMethod)
	assert.NotNil(t, resp.Payment)
	assert.Equal(t, 1, f.mobileMoney.createCalls)
	assert.Equal(t, "HTG", resp.Currency)
	// General-admission fallback: one ticket at the event base price.
	assert.Equal(t, 500.0, resp.Amount)
	assert.Equal(t, 1, f.txns.created[0].Quantity)
}

func TestCheckout_MobileMoneyAsyncUsesInitiate(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "HTG", BasePrice: 500}
	f.seedEvent(event)

	_, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: event.ID.String(),
		Account: "50912345678",
		Async:   true,
	})

	assert.Nil(t, svcErr)
	assert.Equal(t, 0, f.mobileMoney.createCalls)
	assert.Equal(t, 1, f.mobileMoney.initiateCalls)
}

func TestCheckout_MobileMoneyRequiresAccount(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "HTG", BasePrice: 500}
	f.seedEvent(event)

	_, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: event.ID.String(),
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
	assert.Empty(t, f.txns.created, "no ledger record before validation passes")
}

// An HTG-priced event with an explicit non-Haiti country settles by card in
// USD: the 20% discount applies to the G1000 price first, then the G800 total
// converts at the floor rate to about $6.08.
func TestCheckout_DiscountThenConvert(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "HTG", Country: "US"}
	f.seedEvent(event)
	tier := seedTier(f.events, event, 10, 0)
	seedPromo(f.promos, "SAVE20", models.PromoTypePercentage, 20)

	resp, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID:    event.ID.String(),
		Selections: []models.SelectionInput{{TierID: tier.ID.String(), Quantity: 1}},
		PromoCode:  "SAVE20",
	})

	assert.Nil(t, svcErr)
	assert.Equal(t, "USD", resp.Currency)
	assert.InDelta(t, 6.08, resp.Amount, 0.001)

	txn := f.txns.created[0]
	assert.Equal(t, "HTG", txn.OriginalCurrency)
	assert.Equal(t, 800.0, txn.OriginalAmount)
	assert.NotNil(t, txn.ExchangeRate)
	assert.Equal(t, 0.0076, *txn.ExchangeRate)
	assert.NotNil(t, txn.PromoCodeID)
}

// A Haiti event priced in a currency the rate chain cannot convert to HTG
// must be rejected, not ledgered with the foreign total relabeled as HTG.
func TestCheckout_UnconvertibleSettlementCurrencyRejected(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "CAD", Country: "HT", BasePrice: 100}
	f.seedEvent(event)

	_, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: event.ID.String(),
		Account: "50912345678",
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "CAD")
	assert.Empty(t, f.txns.created)
	assert.Equal(t, 0, f.mobileMoney.createCalls)
}

func TestCheckout_ProviderMismatchRejected(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "USD", Country: "US", BasePrice: 50}
	f.seedEvent(event)

	_, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID:       event.ID.String(),
		PaymentMethod: "mobile_money",
		Account:       "50912345678",
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)
	assert.Empty(t, f.txns.created)
}

func TestCheckout_BankCheckoutFlow(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "HTG", BasePrice: 500}
	f.seedEvent(event)

	resp, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID:       event.ID.String(),
		PaymentMethod: "bank_checkout",
	})

	assert.Nil(t, svcErr)
	assert.Contains(t, resp.RedirectURL, "orderId="+resp.OrderID)
	assert.Contains(t, resp.RedirectURL, "eventId="+event.ID.String())
}

func TestCheckout_ProviderNotConfigured(t *testing.T) {
	cfg := fullyConfigured()
	cfg.MobileMoneyClientID = ""
	f := newCheckoutFixture(cfg)
	event := &models.Event{ID: uuid.New(), Currency: "HTG", BasePrice: 500}
	f.seedEvent(event)

	_, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: event.ID.String(),
		Account: "50912345678",
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "not configured")
}

func TestCheckout_UnknownEvent(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())

	_, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: uuid.NewString(),
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestCheckout_LedgerWriteFailureIsTerminal(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "HTG", BasePrice: 500}
	f.seedEvent(event)
	f.txns.failNext = true

	_, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: event.ID.String(),
		Account: "50912345678",
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	assert.Equal(t, 0, f.mobileMoney.createCalls, "provider is not invoked without a ledger record")
}

func TestCheckMobileMoneyPayment_ReconcilesFinalStatus(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	f.mobileMoney.checkStatus = "successful"
	f.mobileMoney.checkRef = "TKT-1-abc"

	result, svcErr := f.svc.CheckMobileMoneyPayment(context.Background(), "mm-123")
	assert.Nil(t, svcErr)
	assert.Equal(t, "successful", result.Status)
	assert.Equal(t, models.TransactionStatusCompleted, f.txns.statuses["TKT-1-abc"])
}

func TestCheckMobileMoneyPayment_PendingStatusNotReconciled(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	f.mobileMoney.checkStatus = "pending"
	f.mobileMoney.checkRef = "TKT-1-abc"

	_, svcErr := f.svc.CheckMobileMoneyPayment(context.Background(), "mm-123")
	assert.Nil(t, svcErr)
	assert.Empty(t, f.txns.statuses)
}

func TestGetTransaction(t *testing.T) {
	f := newCheckoutFixture(fullyConfigured())
	event := &models.Event{ID: uuid.New(), Currency: "HTG", BasePrice: 500}
	f.seedEvent(event)

	resp, svcErr := f.svc.Checkout(context.Background(), "user-1", &models.CheckoutRequest{
		EventID: event.ID.String(),
		Account: "50912345678",
	})
	assert.Nil(t, svcErr)

	txn, svcErr := f.svc.GetTransaction(context.Background(), resp.OrderID)
	assert.Nil(t, svcErr)
	assert.Equal(t, resp.InternalOrderID, txn.InternalOrderID)

	_, svcErr = f.svc.GetTransaction(context.Background(), "unknown")
	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}
