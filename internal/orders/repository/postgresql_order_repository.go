package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/orders/domain"
)

// PostgreSQLOrderRepository implements Order persistence for PostgreSQL.
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQL Order repository.
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{db: db}
}

const pgOrderColumns = `id, customer_id, items, total_amount, status, idempotency_key, created_at, updated_at`

// Create inserts a new order.
func (r *PostgreSQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	items, err := marshalItems(order.Items)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order items")
	}

	query := `INSERT INTO orders (id, customer_id, items, total_amount, status, idempotency_key, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		order.ID,
		order.CustomerID,
		items,
		order.TotalAmount.StringFixed(2),
		string(order.Status),
		order.IdempotencyKey,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "order already exists")
		}
		return apperrors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID retrieves an order by its identifier.
func (r *PostgreSQLOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + pgOrderColumns + ` FROM orders WHERE id = $1`

	return r.scanOrder(querier.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves an order and locks its row for the duration of
// the enclosing transaction, serializing status updates per order.
func (r *PostgreSQLOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + pgOrderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	return r.scanOrder(querier.QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves an order by its idempotency key.
func (r *PostgreSQLOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + pgOrderColumns + ` FROM orders WHERE idempotency_key = $1`

	return r.scanOrder(querier.QueryRowContext(ctx, query, key))
}

// UpdateStatus sets the order status and updated_at timestamp.
func (r *PostgreSQLOrderRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, string(status), updatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// List retrieves orders sorted by creation time descending, optionally
// filtered by customer.
func (r *PostgreSQLOrderRepository) List(
	ctx context.Context,
	customerID string,
	limit, offset int,
) ([]*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + pgOrderColumns + ` FROM orders
			  WHERE ($1 = '' OR customer_id = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer rows.Close() //nolint:errcheck

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate orders")
	}

	return orders, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgreSQLOrderRepository) scanOrder(row *sql.Row) (*domain.Order, error) {
	order, err := r.scanOrderRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *PostgreSQLOrderRepository) scanOrderRow(row rowScanner) (*domain.Order, error) {
	var (
		order     domain.Order
		itemsData []byte
		totalStr  string
		status    string
	)

	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&itemsData,
		&totalStr,
		&status,
		&order.IdempotencyKey,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan order")
	}

	items, err := unmarshalItems(itemsData)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal order items")
	}
	order.Items = items

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse total amount")
	}
	order.TotalAmount = total
	order.Status = domain.Status(status)

	return &order, nil
}
