package models

import "time"

const ReviewCollection = "reviews"

// Review is a customer rating left for a provider. Read-only for admins.
type Review struct {
	ID         string          `bson:"_id" json:"id"`
	ProviderID string          `bson:"providerId" json:"providerId"`
	Rating     float64         `bson:"rating" json:"rating"`
	Comment    string          `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time       `bson:"createdAt" json:"createdAt"`
	Response   *ReviewResponse `bson:"response,omitempty" json:"response,omitempty"`
}

// ReviewResponse is the provider's public reply to a review.
type ReviewResponse struct {
	Text      string     `bson:"text" json:"text"`
	CreatedAt *time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Stars clamps the rating into the 0..5 range used by the star display.
func (r Review) Stars() int {
	switch {
	case r.Rating <= 0:
		return 0
	case r.Rating >= 5:
		return 5
	default:
		return int(r.Rating + 0.5)
	}
}
