package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
)

var (
	_ port.OrdersStorage = (*OrdersRepository)(nil)
	_ port.OutboxStorage = (*OrdersRepository)(nil)
)

const orderColumns = `
	id, user_id, name, phone, address, email, total::text, status,
	COALESCE(payment_intent_id, ''), created_at, updated_at`

// An OrdersRepository owns the orders and the outbox, since every order
// change writes an outbox event in the same transaction.
type OrdersRepository struct {
	db DBPool
}

func NewOrdersRepository(db DBPool) OrdersRepository {
	return OrdersRepository{db}
}

func (r OrdersRepository) StoreOrder(
	ctx context.Context, o domain.Order, evt domain.OutboxEvent,
) (domain.Order, error) {
	const op = "OrdersRepository.StoreOrder"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (
				id, user_id, name, phone, address, email,
				total, status, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10)`,
			o.ID, o.UserID, o.Name, o.Phone, o.Address, o.Email,
			o.Total.String(), o.Status.String(), o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for i, l := range o.Products {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (
					order_id, position, product_id, name,
					price, labelled_price, qty
				)
				VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)`,
				o.ID, i, l.ProductID, l.Name,
				l.Price.String(), l.LabelledPrice.String(), l.Qty,
			)
			if err != nil {
				return err
			}
		}

		return insertOutbox(ctx, tx, evt)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r OrdersRepository) ReadOrder(ctx context.Context, orderID string) (domain.Order, error) {
	const op = "OrdersRepository.ReadOrder"

	o, err := readOrder(ctx, r.db, `id = $1`, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r OrdersRepository) ReadOrderByIntent(
	ctx context.Context, intentID string,
) (domain.Order, error) {
	const op = "OrdersRepository.ReadOrderByIntent"

	o, err := readOrder(ctx, r.db, `payment_intent_id = $1`, intentID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r OrdersRepository) ListOrders(
	ctx context.Context, q domain.OrderQuery,
) ([]domain.Order, error) {
	const op = "OrdersRepository.ListOrders"

	var (
		where []string
		args  []any
	)
	if q.UserID != "" {
		args = append(args, q.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if q.Status != 0 {
		args = append(args, q.Status.String())
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, max(q.Offset, 0))

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) != 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(
		` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args),
	)

	list, err := listOrders(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func (r OrdersRepository) ListAwaitingPayment(
	ctx context.Context, q domain.AwaitingPaymentQuery,
) ([]domain.Order, error) {
	const op = "OrdersRepository.ListAwaitingPayment"

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE (
			(status = $1 AND payment_intent_id IS NOT NULL AND created_at < $3)
			OR (status IN ($1, $2) AND created_at < $4)
		) AND (created_at, id) > ($5, $6)
		ORDER BY created_at, id
		LIMIT $7`

	list, err := listOrders(ctx, r.db, query,
		domain.OrderPendingPayment.String(), domain.OrderPaymentFailed.String(),
		q.StaleBefore, q.ExpireBefore, q.AfterCreatedAt, q.AfterID, q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func (r OrdersRepository) UpdateOrderStatus(
	ctx context.Context, orderID string,
	from, to domain.OrderStatus, evt domain.OutboxEvent,
) (domain.Order, error) {
	const op = "OrdersRepository.UpdateOrderStatus"

	var o domain.Order
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET status = $3, updated_at = now()
			WHERE id = $1 AND status = $2`,
			orderID, from.String(), to.String(),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf(
				"%w: order %s is no longer %s", domain.ErrIllegalTransition, orderID, from,
			)
		}

		if err := insertOutbox(ctx, tx, evt); err != nil {
			return err
		}

		o, err = readOrder(ctx, tx, `id = $1`, orderID)
		return err
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r OrdersRepository) SetPaymentIntent(ctx context.Context, orderID, intentID string) error {
	const op = "OrdersRepository.SetPaymentIntent"

	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET payment_intent_id = $2, updated_at = now() WHERE id = $1`,
		orderID, intentID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (r OrdersRepository) ReadUnpublished(
	ctx context.Context, limit int,
) ([]domain.OutboxEvent, error) {
	const op = "OrdersRepository.ReadUnpublished"

	rows, err := r.db.Query(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	es := []domain.OutboxEvent{}
	for rows.Next() {
		var e domain.OutboxEvent
		err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		es = append(es, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return es, nil
}

func (r OrdersRepository) MarkPublished(ctx context.Context, eventIDs []string) error {
	const op = "OrdersRepository.MarkPublished"

	_, err := r.db.Exec(ctx,
		`UPDATE outbox SET published_at = now() WHERE id = ANY($1)`, eventIDs,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, e domain.OutboxEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.AggregateID, e.EventType, e.Payload, e.CreatedAt,
	)
	return err
}

func readOrder(
	ctx context.Context, q querier, cond string, arg any,
) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + cond
	o, err := scanOrder(q.QueryRow(ctx, query, arg))
	if err != nil {
		return domain.Order{}, notFound(err)
	}

	lines, err := readOrderLines(ctx, q, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Products = lines[o.ID]
	return o, nil
}

func listOrders(
	ctx context.Context, q querier, query string, args ...any,
) ([]domain.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	list := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := collectIDs(list, func(o domain.Order) string { return o.ID })
	lines, err := readOrderLines(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Products = lines[list[i].ID]
	}
	return list, nil
}

func readOrderLines(
	ctx context.Context, q querier, orderIDs []string,
) (map[string][]domain.OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT order_id, product_id, name, price::text, labelled_price::text, qty
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var (
			orderID         string
			l               domain.OrderLine
			price, labelled string
		)
		err := rows.Scan(&orderID, &l.ProductID, &l.Name, &price, &labelled, &l.Qty)
		if err != nil {
			return nil, err
		}
		if l.Price, err = parseMoney(price); err != nil {
			return nil, err
		}
		if l.LabelledPrice, err = parseMoney(labelled); err != nil {
			return nil, err
		}
		m[orderID] = append(m[orderID], l)
	}
	return m, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o             domain.Order
		total, status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Name, &o.Phone, &o.Address, &o.Email,
		&total, &status, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	if o.Total, err = parseMoney(total); err != nil {
		return domain.Order{}, err
	}
	if o.Status, err = domain.ParseOrderStatus(status); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}
