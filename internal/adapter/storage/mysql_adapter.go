package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fridgeflow/grocery/internal/core/domain"
)

// MySQLAdapter implements the repository ports on MySQL. Ledger writes lock
// the user's rows; order writes use an optimistic version column.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	var store domain.Store
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, address, phone, delivery_fee, minimum_order, active, accepting_orders
		FROM stores WHERE id = ?`, storeID,
	).Scan(&store.ID, &store.Name, &store.Address, &store.Phone,
		&store.DeliveryFee, &store.MinimumOrder, &store.Active, &store.AcceptingOrders)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: store %s", domain.ErrNotFound, storeID)
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	return &store, nil
}

func (m *MySQLAdapter) ListByUser(ctx context.Context, userID string) (domain.Ledger, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT user_id, store_id, priority, active, max_delivery_fee, max_distance_miles, notes, added_at
		FROM user_stores WHERE user_id = ? ORDER BY priority ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user stores: %w", err)
	}
	defer rows.Close()

	var ledger domain.Ledger
	for rows.Next() {
		var entry domain.UserStore
		if err := rows.Scan(&entry.UserID, &entry.StoreID, &entry.Priority, &entry.Active,
			&entry.MaxDeliveryFee, &entry.MaxDistanceMiles, &entry.Notes, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("scan user store: %w", err)
		}
		ledger = append(ledger, entry)
	}
	return ledger, rows.Err()
}

func (m *MySQLAdapter) ReplaceForUser(ctx context.Context, userID string, entries domain.Ledger) error {
	if err := entries.Validate(); err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Lock the user's rows so concurrent ledger mutations for the same user
	// serialize instead of interleaving shifts.
	if _, err := tx.ExecContext(ctx, `
		SELECT store_id FROM user_stores WHERE user_id = ? FOR UPDATE`, userID); err != nil {
		return fmt.Errorf("lock user stores: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM user_stores WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear user stores: %w", err)
	}

	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_stores
				(user_id, store_id, priority, active, max_delivery_fee, max_distance_miles, notes, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.UserID, entry.StoreID, entry.Priority, entry.Active,
			entry.MaxDeliveryFee, entry.MaxDistanceMiles, entry.Notes, entry.AddedAt,
		); err != nil {
			return fmt.Errorf("insert user store: %w", err)
		}
	}

	return tx.Commit()
}
