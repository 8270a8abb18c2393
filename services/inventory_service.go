package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"payments-service/models"
	"payments-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService validates requested tier quantities against sales windows
// and remaining stock. Validation is a read, not a reservation: stock is
// decremented later, once the provider confirms payment.
type InventoryService struct {
	events repository.EventRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewInventoryService(events repository.EventRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{events: events, logger: logger, now: time.Now}
}

// Validate checks every requested selection and returns the line items priced
// at the tier unit price (pre-discount). An empty selection list falls back
// to a single general-admission ticket at the event base price.
func (s *InventoryService) Validate(ctx context.Context, event *models.Event, selections []models.SelectionInput) ([]models.TierSelection, *ServiceError) {
	if len(selections) == 0 {
		return []models.TierSelection{{
			TierID:    uuid.Nil,
			Quantity:  1,
			UnitPrice: event.BasePrice,
		}}, nil
	}

	now := s.now()
	result := make([]models.TierSelection, 0, len(selections))

	for _, sel := range selections {
		tierID, err := uuid.Parse(sel.TierID)
		if err != nil {
			return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid ticket tier id"}
		}
		if sel.Quantity <= 0 {
			return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Ticket quantity must be at least 1"}
		}

		tier, err := s.events.FindTierByID(ctx, tierID)
		if err != nil {
			return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Ticket tier not found"}
		}
		if tier.EventID != event.ID {
			return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Ticket tier does not belong to this event"}
		}

		if !tier.Active() {
			return nil, &ServiceError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Ticket tier %s is not available", tier.Name),
			}
		}
		if tier.SalesStart != nil && now.Before(*tier.SalesStart) {
			return nil, &ServiceError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Sales for %s have not started yet", tier.Name),
			}
		}
		if tier.SalesEnd != nil && now.After(*tier.SalesEnd) {
			return nil, &ServiceError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Sales for %s have ended", tier.Name),
			}
		}

		remaining := tier.Remaining()
		if remaining <= 0 {
			return nil, &ServiceError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Ticket tier %s is sold out", tier.Name),
			}
		}
		if sel.Quantity > remaining {
			return nil, &ServiceError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Only %d ticket(s) remaining for %s", remaining, tier.Name),
			}
		}

		result = append(result, models.TierSelection{
			TierID:    tier.ID,
			Quantity:  sel.Quantity,
			UnitPrice: tier.UnitPrice,
		})
	}

	return result, nil
}
