package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders
			(id, order_number, user_id, store_id, status, subtotal, delivery_fee, tax,
			 total_amount, estimated_total, final_total, external_order_id, cancel_reason,
			 draft_created_at, submitted_at, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Number, order.UserID, order.StoreID, order.Status,
		order.Subtotal, order.DeliveryFee, order.Tax, order.TotalAmount,
		order.EstimatedTotal, order.FinalTotal, order.ExternalOrderID, order.CancelReason,
		order.DraftCreatedAt, nullTime(order.SubmittedAt), order.Version,
		order.CreatedAt, order.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var (
		order       domain.Order
		submittedAt sql.NullTime
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, store_id, status, subtotal, delivery_fee, tax,
		       total_amount, estimated_total, final_total, external_order_id, cancel_reason,
		       draft_created_at, submitted_at, version, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&order.ID, &order.Number, &order.UserID, &order.StoreID, &order.Status,
		&order.Subtotal, &order.DeliveryFee, &order.Tax, &order.TotalAmount,
		&order.EstimatedTotal, &order.FinalTotal, &order.ExternalOrderID, &order.CancelReason,
		&order.DraftCreatedAt, &submittedAt, &order.Version, &order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if submittedAt.Valid {
		order.SubmittedAt = submittedAt.Time
	}

	items, err := m.orderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// UpdateOrder replaces the order row and its items, guarded by the version
// column. A stale version writes nothing and reports a conflict.
func (m *MySQLAdapter) UpdateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, subtotal = ?, delivery_fee = ?, tax = ?, total_amount = ?,
		    estimated_total = ?, final_total = ?, external_order_id = ?, cancel_reason = ?,
		    submitted_at = ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND version = ?`,
		order.Status, order.Subtotal, order.DeliveryFee, order.Tax, order.TotalAmount,
		order.EstimatedTotal, order.FinalTotal, order.ExternalOrderID, order.CancelReason,
		nullTime(order.SubmittedAt), order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: order %s was modified concurrently", domain.ErrConflict, order.ID)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM order_items WHERE order_id = ?`, order.ID); err != nil {
		return fmt.Errorf("clear order items: %w", err)
	}
	if err := insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, userID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, store_id, status, subtotal, delivery_fee, tax,
		       total_amount, estimated_total, final_total, external_order_id, cancel_reason,
		       draft_created_at, submitted_at, version, created_at, updated_at
		FROM orders WHERE user_id = ?`
	args := []any{userID}
	if len(statuses) > 0 {
		query += " AND status IN (?" + strings.Repeat(", ?", len(statuses)-1) + ")"
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			order       domain.Order
			submittedAt sql.NullTime
		)
		if err := rows.Scan(&order.ID, &order.Number, &order.UserID, &order.StoreID, &order.Status,
			&order.Subtotal, &order.DeliveryFee, &order.Tax, &order.TotalAmount,
			&order.EstimatedTotal, &order.FinalTotal, &order.ExternalOrderID, &order.CancelReason,
			&order.DraftCreatedAt, &submittedAt, &order.Version, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if submittedAt.Valid {
			order.SubmittedAt = submittedAt.Time
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := m.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (m *MySQLAdapter) orderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sku, name, unit, quantity, price, subtotal, price_at_creation,
		       current_price, price_changed, original_quantity, quantity_modified,
		       user_removed, system_removed, notes
		FROM order_items WHERE order_id = ? ORDER BY position ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.SKU, &it.Name, &it.Unit, &it.Quantity, &it.Price,
			&it.Subtotal, &it.PriceAtCreation, &it.CurrentPrice, &it.PriceChanged,
			&it.OriginalQuantity, &it.QuantityModified, &it.UserRemoved, &it.SystemRemoved,
			&it.Notes); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	for pos, it := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items
				(id, order_id, position, sku, name, unit, quantity, price, subtotal,
				 price_at_creation, current_price, price_changed, original_quantity,
				 quantity_modified, user_removed, system_removed, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, orderID, pos, it.SKU, it.Name, it.Unit, it.Quantity, it.Price, it.Subtotal,
			it.PriceAtCreation, it.CurrentPrice, it.PriceChanged, it.OriginalQuantity,
			it.QuantityModified, it.UserRemoved, it.SystemRemoved, it.Notes,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
