package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoType represents the kind of discount a promo code provides.
type PromoType string

const (
	PromoTypePercentage PromoType = "percentage"
	PromoTypeFixed      PromoType = "fixed"
)

// PromoCode is a promotional discount read from the record store. This
// service never writes promo documents.
type PromoCode struct {
	ID        uuid.UUID  `bson:"_id" json:"id"`
	Code      string     `bson:"code" json:"code"`
	Type      PromoType  `bson:"type" json:"type"`
	Value     float64    `bson:"value" json:"value"`
	StartsAt  *time.Time `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	Active    bool       `bson:"active" json:"active"`
}

// ValidAt reports whether the promo can be applied at the given time.
func (p *PromoCode) ValidAt(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}
	return true
}
