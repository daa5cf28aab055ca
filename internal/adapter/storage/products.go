package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

const defaultListLimit = 100

const productColumns = `
	product_id, name, description, category,
	price::text, labelled_price::text, stock,
	images, display_image, attributes, created_at, updated_at`

type ProductsRepository struct {
	db DBPool
}

func NewProductsRepository(db DBPool) ProductsRepository {
	return ProductsRepository{db}
}

func (r ProductsRepository) StoreProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.StoreProduct"

	attrs, err := marshalAttributes(p.Attributes)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO products (
			product_id, name, description, category,
			price, labelled_price, stock,
			images, display_image, attributes
		)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9, $10)
		RETURNING ` + productColumns

	row := r.db.QueryRow(ctx, query,
		p.ProductID, p.Name, p.Description, p.Category,
		p.Price.String(), p.LabelledPrice.String(), p.Stock,
		nonNilStrings(p.Images), p.DisplayImage, attrs,
	)
	stored, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, fmt.Errorf(
				"%s: %w", op, domain.NewValidationError("productId", "already exists"),
			)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

func (r ProductsRepository) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.UpdateProduct"

	attrs, err := marshalAttributes(p.Attributes)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		UPDATE products SET
			name = $2,
			description = $3,
			category = $4,
			price = $5::numeric,
			labelled_price = $6::numeric,
			stock = $7,
			images = $8,
			display_image = $9,
			attributes = $10,
			updated_at = now()
		WHERE product_id = $1
		RETURNING ` + productColumns

	row := r.db.QueryRow(ctx, query,
		p.ProductID, p.Name, p.Description, p.Category,
		p.Price.String(), p.LabelledPrice.String(), p.Stock,
		nonNilStrings(p.Images), p.DisplayImage, attrs,
	)
	stored, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return stored, nil
}

func (r ProductsRepository) DeleteProduct(ctx context.Context, productID string) error {
	const op = "ProductsRepository.DeleteProduct"

	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, productID))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return p, nil
}

func (r ProductsRepository) ReadProducts(
	ctx context.Context, productIDs []string,
) (map[string]domain.Product, error) {
	const op = "ProductsRepository.ReadProducts"

	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = ANY($1)`
	ps, err := r.queryProducts(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := make(map[string]domain.Product, len(ps))
	for _, p := range ps {
		m[p.ProductID] = p
	}
	return m, nil
}

func (r ProductsRepository) ListProducts(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ListProducts"

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category = $1)
		ORDER BY created_at DESC, product_id
		LIMIT $2 OFFSET $3`

	ps, err := r.queryProducts(ctx, query, q.Category, limit, max(q.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) SearchProducts(
	ctx context.Context, q string, limit int,
) ([]domain.Product, error) {
	const op = "ProductsRepository.SearchProducts"

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY name ASC
		LIMIT $2`

	ps, err := r.queryProducts(ctx, query, "%"+escapeLike(q)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) queryProducts(
	ctx context.Context, query string, args ...any,
) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p               domain.Product
		price, labelled string
		attrs           []byte
	)
	err := row.Scan(
		&p.ProductID, &p.Name, &p.Description, &p.Category,
		&price, &labelled, &p.Stock,
		&p.Images, &p.DisplayImage, &attrs, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	if p.Price, err = parseMoney(price); err != nil {
		return domain.Product{}, err
	}
	if p.LabelledPrice, err = parseMoney(labelled); err != nil {
		return domain.Product{}, err
	}
	if len(attrs) != 0 {
		if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
			return domain.Product{}, err
		}
	}
	return p, nil
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return json.Marshal(attrs)
}

func nonNilStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
