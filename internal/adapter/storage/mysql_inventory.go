package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

func (m *MySQLAdapter) ListByDevice(ctx context.Context, deviceID string) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, device_id, sku, name, unit, quantity, threshold, status, updated_at
		FROM inventory_items WHERE device_id = ? ORDER BY name ASC`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()
	return scanInventoryItems(rows)
}

func (m *MySQLAdapter) ListAlertsByUser(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT i.id, i.device_id, i.sku, i.name, i.unit, i.quantity, i.threshold, i.status, i.updated_at
		FROM inventory_items i
		JOIN devices d ON d.id = i.device_id
		WHERE d.user_id = ? AND d.active = TRUE AND i.status IN ('LOW', 'CRITICAL', 'OUT_OF_STOCK')
		ORDER BY i.name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query inventory alerts: %w", err)
	}
	defer rows.Close()
	return scanInventoryItems(rows)
}

func (m *MySQLAdapter) GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := m.db.QueryRowContext(ctx, `
		SELECT id, device_id, sku, name, unit, quantity, threshold, status, updated_at
		FROM inventory_items WHERE id = ?`, itemID,
	).Scan(&item.ID, &item.DeviceID, &item.SKU, &item.Name, &item.Unit,
		&item.Quantity, &item.Threshold, &item.Status, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: inventory item %s", domain.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) SaveItem(ctx context.Context, item domain.InventoryItem) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = ?, threshold = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		item.Quantity, item.Threshold, item.Status, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// RowsAffected is 0 both for a missing row and a no-op update, so
		// double check existence before reporting not found.
		var exists int
		if err := m.db.QueryRowContext(ctx,
			`SELECT 1 FROM inventory_items WHERE id = ?`, item.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: inventory item %s", domain.ErrNotFound, item.ID)
		}
	}
	return nil
}

func scanInventoryItems(rows *sql.Rows) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.DeviceID, &item.SKU, &item.Name, &item.Unit,
			&item.Quantity, &item.Threshold, &item.Status, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
