package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
)

var (
	_ port.ReviewsStorage  = (*ReviewsRepository)(nil)
	_ port.WishlistStorage = (*ReviewsRepository)(nil)
)

const reviewColumns = `id, user_id, product_id, rating, comment, status, created_at`

// A ReviewsRepository keeps reviews and wishlists, the per user product
// annotations.
type ReviewsRepository struct {
	db DBPool
}

func NewReviewsRepository(db DBPool) ReviewsRepository {
	return ReviewsRepository{db}
}

// UpsertReview keeps the id of an existing review by the same user.
func (r ReviewsRepository) UpsertReview(
	ctx context.Context, v domain.Review,
) (domain.Review, error) {
	const op = "ReviewsRepository.UpsertReview"

	row := r.db.QueryRow(ctx, `
		INSERT INTO reviews (id, user_id, product_id, rating, comment, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at
		RETURNING `+reviewColumns,
		v.ID, v.UserID, v.ProductID, v.Rating, v.Comment, v.Status.String(), v.CreatedAt,
	)
	stored, err := scanReview(row)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

func (r ReviewsRepository) ReadReview(ctx context.Context, reviewID string) (domain.Review, error) {
	const op = "ReviewsRepository.ReadReview"

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	v, err := scanReview(r.db.QueryRow(ctx, query, reviewID))
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return v, nil
}

func (r ReviewsRepository) ListProductReviews(
	ctx context.Context, productID string, status domain.ReviewStatus,
) ([]domain.Review, error) {
	const op = "ReviewsRepository.ListProductReviews"

	rs, err := r.queryReviews(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE product_id = $1 AND status = $2
		ORDER BY created_at DESC`, productID, status.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (r ReviewsRepository) ListUserReviews(
	ctx context.Context, userID string,
) ([]domain.Review, error) {
	const op = "ReviewsRepository.ListUserReviews"

	rs, err := r.queryReviews(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (r ReviewsRepository) ListReviews(ctx context.Context) ([]domain.Review, error) {
	const op = "ReviewsRepository.ListReviews"

	rs, err := r.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (r ReviewsRepository) UpdateReviewStatus(
	ctx context.Context, reviewID string, status domain.ReviewStatus,
) (domain.Review, error) {
	const op = "ReviewsRepository.UpdateReviewStatus"

	row := r.db.QueryRow(ctx,
		`UPDATE reviews SET status = $2 WHERE id = $1 RETURNING `+reviewColumns,
		reviewID, status.String(),
	)
	v, err := scanReview(row)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return v, nil
}

func (r ReviewsRepository) DeleteReview(ctx context.Context, reviewID string) error {
	const op = "ReviewsRepository.DeleteReview"

	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (r ReviewsRepository) AddWishlistEntry(ctx context.Context, e domain.WishlistEntry) error {
	const op = "ReviewsRepository.AddWishlistEntry"

	_, err := r.db.Exec(ctx, `
		INSERT INTO wishlist (user_id, product_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		e.UserID, e.ProductID, e.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r ReviewsRepository) DeleteWishlistEntry(ctx context.Context, userID, productID string) error {
	const op = "ReviewsRepository.DeleteWishlistEntry"

	_, err := r.db.Exec(ctx,
		`DELETE FROM wishlist WHERE user_id = $1 AND product_id = $2`, userID, productID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r ReviewsRepository) ListWishlist(
	ctx context.Context, userID string,
) ([]domain.WishlistEntry, error) {
	const op = "ReviewsRepository.ListWishlist"

	rows, err := r.db.Query(ctx, `
		SELECT user_id, product_id, added_at FROM wishlist
		WHERE user_id = $1
		ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	es := []domain.WishlistEntry{}
	for rows.Next() {
		var e domain.WishlistEntry
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		es = append(es, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return es, nil
}

func (r ReviewsRepository) queryReviews(
	ctx context.Context, query string, args ...any,
) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs := []domain.Review{}
	for rows.Next() {
		v, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		rs = append(rs, v)
	}
	return rs, rows.Err()
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var (
		v      domain.Review
		status string
	)
	err := row.Scan(
		&v.ID, &v.UserID, &v.ProductID, &v.Rating, &v.Comment, &status, &v.CreatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	if v.Status, err = domain.ParseReviewStatus(status); err != nil {
		return domain.Review{}, err
	}
	return v, nil
}
