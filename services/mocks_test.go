package services_test

import (
	"context"
	"errors"
	"fmt"

	"payments-service/models"
	"payments-service/repository"

	"github.com/google/uuid"
)

// --- In-memory repositories ---

type mockEventRepo struct {
	events map[uuid.UUID]*models.Event
	tiers  map[uuid.UUID]*models.TicketTier
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{
		events: make(map[uuid.UUID]*models.Event),
		tiers:  make(map[uuid.UUID]*models.TicketTier),
	}
}

func (m *mockEventRepo) FindEventByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	if event, ok := m.events[id]; ok {
		return event, nil
	}
	return nil, errors.New("event not found")
}

func (m *mockEventRepo) FindTierByID(_ context.Context, id uuid.UUID) (*models.TicketTier, error) {
	if tier, ok := m.tiers[id]; ok {
		return tier, nil
	}
	return nil, errors.New("tier not found")
}

func (m *mockEventRepo) FindTiersByEventID(_ context.Context, eventID uuid.UUID) ([]models.TicketTier, error) {
	var tiers []models.TicketTier
	for _, tier := range m.tiers {
		if tier.EventID == eventID {
			tiers = append(tiers, *tier)
		}
	}
	return tiers, nil
}

type mockPromoRepo struct {
	promos map[string]*models.PromoCode
}

func newMockPromoRepo() *mockPromoRepo {
	return &mockPromoRepo{promos: make(map[string]*models.PromoCode)}
}

func (m *mockPromoRepo) FindByCode(_ context.Context, code string) (*models.PromoCode, error) {
	if promo, ok := m.promos[code]; ok && promo.Active {
		return promo, nil
	}
	return nil, errors.New("promo not found")
}

type mockTxnRepo struct {
	created  []*models.PendingTransaction
	statuses map[string]string
	failNext bool
}

func newMockTxnRepo() *mockTxnRepo {
	return &mockTxnRepo{statuses: make(map[string]string)}
}

func (m *mockTxnRepo) Create(_ context.Context, txn *models.PendingTransaction) error {
	if m.failNext {
		return errors.New("insert failed")
	}
	m.created = append(m.created, txn)
	return nil
}

func (m *mockTxnRepo) FindByOrderID(_ context.Context, orderID string) (*models.PendingTransaction, error) {
	for _, txn := range m.created {
		if txn.OrderID == orderID {
			return txn, nil
		}
	}
	return nil, errors.New("transaction not found")
}

func (m *mockTxnRepo) FindByInternalOrderID(_ context.Context, internalOrderID string) (*models.PendingTransaction, error) {
	for _, txn := range m.created {
		if txn.InternalOrderID == internalOrderID {
			return txn, nil
		}
	}
	return nil, errors.New("transaction not found")
}

func (m *mockTxnRepo) UpdateStatus(_ context.Context, internalOrderID, status string) error {
	m.statuses[internalOrderID] = status
	return nil
}

var _ repository.EventRepository = (*mockEventRepo)(nil)
var _ repository.PromoRepository = (*mockPromoRepo)(nil)
var _ repository.TransactionRepository = (*mockTxnRepo)(nil)

// --- Provider fakes ---

type mockCardProcessor struct {
	calls int
	err   error
}

func (m *mockCardProcessor) CreatePaymentIntent(amount int64, currency string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("pi_secret_%d_%s", amount, currency), nil
}

type mockMobileMoneyGateway struct {
	createCalls   int
	initiateCalls int
	checkStatus   string
	checkRef      string
	err           error
}

func (m *mockMobileMoneyGateway) CreatePayment(_ context.Context, reference, account string, amount float64) (*models.MobileMoneyPaymentResult, error) {
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	return &models.MobileMoneyPaymentResult{TransactionID: "mm-1", Reference: reference, Status: "pending", Amount: amount, Account: account}, nil
}

func (m *mockMobileMoneyGateway) InitiatePayment(_ context.Context, reference, account string, amount float64) (*models.MobileMoneyPaymentResult, error) {
	m.initiateCalls++
	if m.err != nil {
		return nil, m.err
	}
	return &models.MobileMoneyPaymentResult{TransactionID: "mm-2", Reference: reference, Status: "initiated", Amount: amount, Account: account}, nil
}

func (m *mockMobileMoneyGateway) CheckPayment(_ context.Context, transactionID, reference string) (*models.MobileMoneyPaymentResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.MobileMoneyPaymentResult{TransactionID: transactionID, Reference: m.checkRef, Status: m.checkStatus}, nil
}

type mockPublisher struct {
	published [][]byte
}

func (m *mockPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.published = append(m.published, message)
	return nil
}
