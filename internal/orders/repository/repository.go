// Package repository implements data persistence for order entities.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). PostgreSQL uses native UUID types, MySQL uses BINARY(16)
// types. Order items are stored as a JSON document on the orders row;
// amounts are stored as fixed-point decimals and never pass through floats.
package repository

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/allisson/orders/internal/orders/domain"
)

// dbOrderItem is the JSON shape of one order line inside the items column.
type dbOrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// marshalItems serializes order items for the items column.
func marshalItems(items []domain.OrderItem) ([]byte, error) {
	rows := make([]dbOrderItem, len(items))
	for i, item := range items {
		rows[i] = dbOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		}
	}
	return json.Marshal(rows)
}

// unmarshalItems deserializes the items column.
func unmarshalItems(data []byte) ([]domain.OrderItem, error) {
	var rows []dbOrderItem
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, len(rows))
	for i, row := range rows {
		price, err := decimal.NewFromString(row.UnitPrice)
		if err != nil {
			return nil, err
		}
		items[i] = domain.OrderItem{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			UnitPrice: price,
		}
	}
	return items, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
