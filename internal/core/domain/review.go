package domain

import (
	"fmt"
	"time"
)

type ReviewStatus int

const (
	ReviewPending ReviewStatus = iota + 1
	ReviewApproved
	ReviewHidden
)

func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch s {
	case "pending":
		return ReviewPending, nil
	case "approved":
		return ReviewApproved, nil
	case "hidden":
		return ReviewHidden, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownReviewStatus, s)
}

func (s ReviewStatus) String() string {
	switch s {
	case ReviewPending:
		return "pending"
	case ReviewApproved:
		return "approved"
	case ReviewHidden:
		return "hidden"
	}
	return fmt.Sprintf("ReviewStatus(%d)", int(s))
}

type Review struct {
	ID        string
	UserID    string
	ProductID string
	Rating    int
	Comment   string
	Status    ReviewStatus
	CreatedAt time.Time
}

func (r Review) Validate() error {
	if r.ProductID == "" {
		return NewValidationError("productId", "required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}

type WishlistEntry struct {
	UserID    string
	ProductID string
	AddedAt   time.Time
}
