package services

import (
	"context"
	"net/http"
	"time"

	"payments-service/models"
	"payments-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PricingService applies promo-code discounts to unit prices and computes
// checkout totals. Discounts are always applied to the event-currency unit
// price before any cross-currency conversion; settlement amounts depend on
// that ordering.
type PricingService struct {
	promos repository.PromoRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewPricingService(promos repository.PromoRepository, logger *zap.Logger) *PricingService {
	return &PricingService{promos: promos, logger: logger, now: time.Now}
}

// Price recomputes each selection's unit price under the promo's discount
// rule (when a code is supplied) and returns the priced selections with the
// total in the event currency. The promo id is returned for the ledger
// record.
func (s *PricingService) Price(ctx context.Context, selections []models.TierSelection, promoCode string) ([]models.TierSelection, float64, *uuid.UUID, *ServiceError) {
	var promo *models.PromoCode
	if promoCode != "" {
		found, err := s.promos.FindByCode(ctx, promoCode)
		if err != nil {
			return nil, 0, nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid promo code"}
		}
		if !found.ValidAt(s.now()) {
			return nil, 0, nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Promo code has expired"}
		}
		promo = found
	}

	priced := make([]models.TierSelection, len(selections))
	var total float64
	for i, sel := range selections {
		unitPrice := sel.UnitPrice
		if promo != nil {
			unitPrice = discountedUnitPrice(unitPrice, promo)
		}
		priced[i] = models.TierSelection{
			TierID:    sel.TierID,
			Quantity:  sel.Quantity,
			UnitPrice: unitPrice,
		}
		total += float64(sel.Quantity) * unitPrice
	}

	if promo != nil {
		s.logger.Info("promo code applied",
			zap.String("code", promo.Code),
			zap.String("type", string(promo.Type)),
			zap.Float64("total", total),
		)
	}

	var promoID *uuid.UUID
	if promo != nil {
		promoID = &promo.ID
	}
	return priced, total, promoID, nil
}

// discountedUnitPrice applies the promo rule to one unit price, clamped to
// zero.
func discountedUnitPrice(unitPrice float64, promo *models.PromoCode) float64 {
	var discounted float64
	switch promo.Type {
	case models.PromoTypePercentage:
		discounted = unitPrice * (1 - promo.Value/100)
	case models.PromoTypeFixed:
		discounted = unitPrice - promo.Value
	default:
		discounted = unitPrice
	}
	if discounted < 0 {
		return 0
	}
	return discounted
}
