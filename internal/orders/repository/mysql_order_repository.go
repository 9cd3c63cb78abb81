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

// MySQLOrderRepository implements Order persistence for MySQL.
// Identifiers are stored as BINARY(16).
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQL Order repository.
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

const mysqlOrderColumns = `id, customer_id, items, total_amount, status, idempotency_key, created_at, updated_at`

// Create inserts a new order.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	items, err := marshalItems(order.Items)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order items")
	}

	idBytes, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO orders (id, customer_id, items, total_amount, status, idempotency_key, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		order.CustomerID,
		items,
		order.TotalAmount.StringFixed(2),
		string(order.Status),
		order.IdempotencyKey,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "order already exists")
		}
		return apperrors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID retrieves an order by its identifier.
func (r *MySQLOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlOrderColumns + ` FROM orders WHERE id = ?`

	return r.scanOrder(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByIDForUpdate retrieves an order and locks its row for the duration of
// the enclosing transaction, serializing status updates per order.
func (r *MySQLOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlOrderColumns + ` FROM orders WHERE id = ? FOR UPDATE`

	return r.scanOrder(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByIdempotencyKey retrieves an order by its idempotency key.
func (r *MySQLOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlOrderColumns + ` FROM orders WHERE idempotency_key = ?`

	return r.scanOrder(querier.QueryRowContext(ctx, query, key))
}

// UpdateStatus sets the order status and updated_at timestamp.
func (r *MySQLOrderRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, string(status), updatedAt, idBytes)
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
func (r *MySQLOrderRepository) List(
	ctx context.Context,
	customerID string,
	limit, offset int,
) ([]*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlOrderColumns + ` FROM orders
			  WHERE (? = '' OR customer_id = ?)
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, customerID, customerID, limit, offset)
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

func (r *MySQLOrderRepository) scanOrder(row *sql.Row) (*domain.Order, error) {
	order, err := r.scanOrderRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *MySQLOrderRepository) scanOrderRow(row rowScanner) (*domain.Order, error) {
	var (
		order     domain.Order
		idBytes   []byte
		itemsData []byte
		totalStr  string
		status    string
	)

	err := row.Scan(
		&idBytes,
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

	// Convert bytes back to UUID
	if err := order.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
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
