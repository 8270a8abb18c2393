package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"payments-service/models"
	"payments-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CardProcessor is the card-provider surface the checkout needs: a client
// secret for the frontend to complete the payment.
type CardProcessor interface {
	CreatePaymentIntent(amount int64, currency string) (string, error)
}

// MobileMoneyGateway is the mobile-money provider surface.
type MobileMoneyGateway interface {
	CreatePayment(ctx context.Context, reference, account string, amount float64) (*models.MobileMoneyPaymentResult, error)
	InitiatePayment(ctx context.Context, reference, account string, amount float64) (*models.MobileMoneyPaymentResult, error)
	CheckPayment(ctx context.Context, transactionID, reference string) (*models.MobileMoneyPaymentResult, error)
}

// BankCheckout builds hosted-checkout redirect URLs.
type BankCheckout interface {
	BuildRedirectURL(orderID, eventID string) (string, *ServiceError)
}

// CheckoutService orchestrates a checkout: provider routing, inventory
// validation, pricing, currency conversion, the settlement-ledger write, and
// the provider call that yields the payable artifact.
type CheckoutService struct {
	events       repository.EventRepository
	transactions repository.TransactionRepository
	router       *ProviderRouter
	inventory    *InventoryService
	pricing      *PricingService
	currency     *CurrencyService
	card         CardProcessor
	mobileMoney  MobileMoneyGateway
	bankCheckout BankCheckout
	publisher    EventPublisher
	topicARN     string
	logger       *zap.Logger
	now          func() time.Time
}

// CheckoutServiceDeps bundles the collaborators of a CheckoutService.
type CheckoutServiceDeps struct {
	Events       repository.EventRepository
	Transactions repository.TransactionRepository
	Router       *ProviderRouter
	Inventory    *InventoryService
	Pricing      *PricingService
	Currency     *CurrencyService
	Card         CardProcessor
	MobileMoney  MobileMoneyGateway
	BankCheckout BankCheckout
	Publisher    EventPublisher
	TopicARN     string
	Logger       *zap.Logger
}

func NewCheckoutService(deps CheckoutServiceDeps) *CheckoutService {
	return &CheckoutService{
		events:       deps.Events,
		transactions: deps.Transactions,
		router:       deps.Router,
		inventory:    deps.Inventory,
		pricing:      deps.Pricing,
		currency:     deps.Currency,
		card:         deps.Card,
		mobileMoney:  deps.MobileMoney,
		bankCheckout: deps.BankCheckout,
		publisher:    deps.Publisher,
		topicARN:     deps.TopicARN,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// Checkout runs one checkout attempt end to end. Exactly one pending
// transaction is written per attempt, and only after every validation step
// has passed; the provider call happens after the write so the ledger record
// is the durable anchor for reconciliation.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req *models.CheckoutRequest) (*models.CheckoutResponse, *ServiceError) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid event id"}
	}

	event, err := s.events.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Event not found"}
	}

	provider, svcErr := s.router.SelectProvider(event, models.PaymentMethod(req.PaymentMethod))
	if svcErr != nil {
		return nil, svcErr
	}
	if provider == models.PaymentMethodMobileMoney && req.Account == "" {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "A mobile money account is required for this payment method"}
	}

	selections, svcErr := s.inventory.Validate(ctx, event, req.Selections)
	if svcErr != nil {
		return nil, svcErr
	}

	priced, total, promoID, svcErr := s.pricing.Price(ctx, selections, req.PromoCode)
	if svcErr != nil {
		return nil, svcErr
	}

	eventCurrency := strings.ToUpper(event.Currency)
	if eventCurrency == "" {
		eventCurrency = "USD"
	}
	settleCurrency := settlementCurrency(provider, eventCurrency)

	// Discounts were applied to the event-currency prices above; conversion
	// to the settlement currency happens strictly afterwards.
	amount := total
	var exchangeRate *float64
	if settleCurrency != eventCurrency {
		if !SupportedConversion(eventCurrency, settleCurrency) {
			return nil, &ServiceError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Cannot settle a %s-priced event in %s", eventCurrency, settleCurrency),
			}
		}
		snapshot := s.currency.Resolve(ctx)
		amount = ConvertWithRate(total, eventCurrency, settleCurrency, snapshot.Rate)
		exchangeRate = &snapshot.Rate
	}

	orderID, internalOrderID := s.newOrderIDs()
	quantity := 0
	for _, sel := range priced {
		quantity += sel.Quantity
	}

	txn := &models.PendingTransaction{
		ID:               uuid.New(),
		OrderID:          orderID,
		InternalOrderID:  internalOrderID,
		UserID:           userID,
		EventID:          event.ID,
		Quantity:         quantity,
		Amount:           amount,
		Currency:         settleCurrency,
		OriginalCurrency: eventCurrency,
		OriginalAmount:   total,
		ExchangeRate:     exchangeRate,
		PaymentMethod:    provider,
		Status:           models.TransactionStatusPending,
		TierSelections:   priced,
		PromoCodeID:      promoID,
		CreatedAt:        s.now().UTC(),
		UpdatedAt:        s.now().UTC(),
	}

	if err := s.transactions.Create(ctx, txn); err != nil {
		s.logger.Error("failed to create pending transaction",
			zap.String("internal_order_id", internalOrderID),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to create transaction"}
	}

	s.logger.Info("pending transaction created",
		zap.String("order_id", orderID),
		zap.String("internal_order_id", internalOrderID),
		zap.String("provider", string(provider)),
		zap.Float64("amount", amount),
		zap.String("currency", settleCurrency),
	)

	resp := &models.CheckoutResponse{
		OrderID:         orderID,
		InternalOrderID: internalOrderID,
		Amount:          amount,
		Currency:        settleCurrency,
		PaymentMethod:   string(provider),
	}

	switch provider {
	case models.PaymentMethodCard:
		clientSecret, err := s.card.CreatePaymentIntent(toMinorUnits(amount), strings.ToLower(settleCurrency))
		if err != nil {
			s.logger.Error("card payment intent failed", zap.String("order_id", orderID), zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Card processor is currently unavailable"}
		}
		resp.ClientSecret = clientSecret

	case models.PaymentMethodMobileMoney:
		var payment *models.MobileMoneyPaymentResult
		if req.Async {
			payment, err = s.mobileMoney.InitiatePayment(ctx, internalOrderID, req.Account, amount)
		} else {
			payment, err = s.mobileMoney.CreatePayment(ctx, internalOrderID, req.Account, amount)
		}
		if err != nil {
			s.logger.Error("mobile money payment failed", zap.String("order_id", orderID), zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Mobile money provider is currently unavailable"}
		}
		resp.Payment = payment

	case models.PaymentMethodBankCheckout:
		redirectURL, svcErr := s.bankCheckout.BuildRedirectURL(orderID, event.ID.String())
		if svcErr != nil {
			return nil, svcErr
		}
		resp.RedirectURL = redirectURL
	}

	s.publishTransactionCreated(ctx, txn)
	return resp, nil
}

// GetTransaction looks up a ledger record by its provider-facing order id.
func (s *CheckoutService) GetTransaction(ctx context.Context, orderID string) (*models.PendingTransaction, *ServiceError) {
	txn, err := s.transactions.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Transaction not found"}
	}
	return txn, nil
}

// CheckMobileMoneyPayment polls the provider for a payment's status and
// reconciles the ledger record when the provider reports a final outcome.
func (s *CheckoutService) CheckMobileMoneyPayment(ctx context.Context, transactionID string) (*models.MobileMoneyPaymentResult, *ServiceError) {
	result, err := s.mobileMoney.CheckPayment(ctx, transactionID, "")
	if err != nil {
		s.logger.Error("mobile money status check failed", zap.String("transaction_id", transactionID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Mobile money provider is currently unavailable"}
	}

	if status := ledgerStatusFor(result.Status); status != "" && result.Reference != "" {
		if err := s.transactions.UpdateStatus(ctx, result.Reference, status); err != nil {
			s.logger.Warn("failed to reconcile transaction status",
				zap.String("reference", result.Reference),
				zap.String("status", status),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

// ledgerStatusFor maps a provider payment status onto a ledger status.
// Non-final provider statuses map to "".
func ledgerStatusFor(providerStatus string) string {
	switch strings.ToLower(providerStatus) {
	case "successful", "success", "completed":
		return models.TransactionStatusCompleted
	case "failed", "declined":
		return models.TransactionStatusFailed
	case "expired":
		return models.TransactionStatusExpired
	default:
		return ""
	}
}

// settlementCurrency returns the currency a provider settles in. Mobile money
// and bank checkout settle HTG; the card processor settles the event currency
// except HTG, which it cannot process.
func settlementCurrency(provider models.PaymentMethod, eventCurrency string) string {
	switch provider {
	case models.PaymentMethodMobileMoney, models.PaymentMethodBankCheckout:
		return "HTG"
	default:
		if eventCurrency == "HTG" {
			return "USD"
		}
		return eventCurrency
	}
}

// newOrderIDs generates the two order identifiers: a globally unique internal
// id and a short numeric id that fits in provider redirect URLs.
func (s *CheckoutService) newOrderIDs() (orderID, internalOrderID string) {
	now := s.now()
	internalOrderID = fmt.Sprintf("TKT-%d-%s", now.UnixNano(), strings.SplitN(uuid.NewString(), "-", 2)[0])
	orderID = fmt.Sprintf("%d%03d", now.UnixMilli()%100000000, rand.Intn(1000))
	return orderID, internalOrderID
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *CheckoutService) publishTransactionCreated(ctx context.Context, txn *models.PendingTransaction) {
	if s.publisher == nil || s.topicARN == "" {
		return
	}

	event := models.TransactionCreatedEvent{
		EventType:       "transaction.created",
		OrderID:         txn.OrderID,
		InternalOrderID: txn.InternalOrderID,
		UserID:          txn.UserID,
		EventID:         txn.EventID.String(),
		Amount:          txn.Amount,
		Currency:        txn.Currency,
		PaymentMethod:   string(txn.PaymentMethod),
		Timestamp:       s.now().UTC(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal transaction.created event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, s.topicARN, eventBytes); err != nil {
		s.logger.Error("failed to publish transaction.created event", zap.Error(err))
	}
}
