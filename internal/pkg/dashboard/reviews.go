package dashboard

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

const DefaultReviewPageSize = 10

// ReviewPage is one page of reviews, newest first. Cursor is passed back to
// fetch the following page.
type ReviewPage struct {
	Reviews []models.Review `json:"reviews"`
	Cursor  string          `json:"cursor,omitempty"`
	// HasMore is true whenever the page is full, so the last page can be
	// followed by an empty one.
	HasMore bool `json:"hasMore"`
}

type reviewCursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

// EncodeReviewCursor turns the position of a review into an opaque token.
func EncodeReviewCursor(r models.Review) string {
	data, _ := json.Marshal(reviewCursor{CreatedAt: r.CreatedAt, ID: r.ID})
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeReviewCursor reverses EncodeReviewCursor. An empty token is the
// first page.
func DecodeReviewCursor(token string) (*repository.ReviewCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperrors.NewValidationError("cursor", "malformed cursor")
	}
	var c reviewCursor
	if err := json.Unmarshal(data, &c); err != nil || c.ID == "" {
		return nil, apperrors.NewValidationError("cursor", "malformed cursor")
	}
	return &repository.ReviewCursor{CreatedAt: c.CreatedAt, ID: c.ID}, nil
}

// FetchPaginatedReviews returns up to pageSize reviews for a provider
// starting after cursor.
func (s *Service) FetchPaginatedReviews(ctx context.Context, providerID string, pageSize int64, cursor string) (ReviewPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultReviewPageSize
	}
	after, err := DecodeReviewCursor(cursor)
	if err != nil {
		return ReviewPage{}, err
	}

	reviews, err := s.reviews.ListByProvider(ctx, providerID, pageSize, after)
	if err != nil {
		s.metrics.IncReadFailure("reviews")
		return ReviewPage{}, err
	}

	page := ReviewPage{
		Reviews: reviews,
		HasMore: int64(len(reviews)) == pageSize,
	}
	if len(reviews) > 0 {
		page.Cursor = EncodeReviewCursor(reviews[len(reviews)-1])
	}
	return page, nil
}
