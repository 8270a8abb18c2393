package repository

import (
	"context"

	"payments-service/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventRepository is the read-only view of events and ticket tiers this
// service needs. Both collections are owned by the event-management service.
type EventRepository interface {
	FindEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindTierByID(ctx context.Context, id uuid.UUID) (*models.TicketTier, error)
	FindTiersByEventID(ctx context.Context, eventID uuid.UUID) ([]models.TicketTier, error)
}

type mongoEventRepository struct {
	events *mongo.Collection
	tiers  *mongo.Collection
}

// NewMongoEventRepository creates an EventRepository backed by the events and
// ticket_tiers collections.
func NewMongoEventRepository(db *mongo.Database) EventRepository {
	return &mongoEventRepository{
		events: db.Collection("events"),
		tiers:  db.Collection("ticket_tiers"),
	}
}

func (r *mongoEventRepository) FindEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.events.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *mongoEventRepository) FindTierByID(ctx context.Context, id uuid.UUID) (*models.TicketTier, error) {
	var tier models.TicketTier
	err := r.tiers.FindOne(ctx, bson.M{"_id": id}).Decode(&tier)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *mongoEventRepository) FindTiersByEventID(ctx context.Context, eventID uuid.UUID) ([]models.TicketTier, error) {
	cursor, err := r.tiers.Find(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tiers []models.TicketTier
	if err = cursor.All(ctx, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}
