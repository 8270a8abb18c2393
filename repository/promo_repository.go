package repository

import (
	"context"
	"strings"

	"payments-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PromoRepository looks up promotional codes. Read-only to this service.
type PromoRepository interface {
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

type mongoPromoRepository struct {
	promos *mongo.Collection
}

// NewMongoPromoRepository creates a PromoRepository backed by the promo_codes
// collection.
func NewMongoPromoRepository(db *mongo.Database) PromoRepository {
	return &mongoPromoRepository{promos: db.Collection("promo_codes")}
}

// FindByCode retrieves an active promo code, matched case-insensitively.
func (r *mongoPromoRepository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	filter := bson.M{"code": strings.ToUpper(code), "active": true}
	if err := r.promos.FindOne(ctx, filter).Decode(&promo); err != nil {
		return nil, err
	}
	return &promo, nil
}
