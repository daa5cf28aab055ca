package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
)

var _ port.CartsStorage = (*CartsRepository)(nil)

type CartsRepository struct {
	db DBPool
}

func NewCartsRepository(db DBPool) CartsRepository {
	return CartsRepository{db}
}

func (r CartsRepository) ReadCart(ctx context.Context, userID string) (domain.Cart, error) {
	const op = "CartsRepository.ReadCart"

	c := domain.NewCart(userID)
	err := r.db.QueryRow(ctx,
		`SELECT version, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, notFound(err))
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id, name, image, price::text, labelled_price::text, qty
		FROM cart_items
		WHERE user_id = $1
		ORDER BY position`, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it              domain.LineItem
			price, labelled string
		)
		err := rows.Scan(&it.ProductID, &it.Name, &it.Image, &price, &labelled, &it.Qty)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
		}
		if it.Price, err = parseMoney(price); err != nil {
			return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
		}
		if it.LabelledPrice, err = parseMoney(labelled); err != nil {
			return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// WriteCart deletes the stored items and inserts the new ones in one
// transaction. The version check makes it a compare and swap.
func (r CartsRepository) WriteCart(
	ctx context.Context, c domain.Cart, expected int64,
) (domain.Cart, error) {
	const op = "CartsRepository.WriteCart"

	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := bumpVersion(ctx, tx, c, expected); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, c.UserID)
		if err != nil {
			return err
		}

		for i, it := range c.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO cart_items (
					user_id, position, product_id, name, image,
					price, labelled_price, qty
				)
				VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)`,
				c.UserID, i, it.ProductID, it.Name, it.Image,
				it.Price.String(), it.LabelledPrice.String(), it.Qty,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	c.Version = expected + 1
	return c, nil
}

func bumpVersion(ctx context.Context, tx pgx.Tx, c domain.Cart, expected int64) error {
	var (
		query string
		args  []any
	)
	if expected == 0 {
		query = `
			INSERT INTO carts (user_id, version, updated_at)
			VALUES ($1, 1, $2)
			ON CONFLICT (user_id) DO NOTHING`
		args = []any{c.UserID, c.UpdatedAt}
	} else {
		query = `
			UPDATE carts SET version = version + 1, updated_at = $3
			WHERE user_id = $1 AND version = $2`
		args = []any{c.UserID, expected, c.UpdatedAt}
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartVersionConflict
	}
	return nil
}
