package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type orderRepository struct {
	BaseRepository
}

func NewOrderRepository(base BaseRepository) repository.OrderRepository {
	return &orderRepository{base}
}

func (r *orderRepository) Place(ctx context.Context, order *model.Order, events []*model.OutboxEvent) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Conditional decrement: a row only updates while enough stock
		// remains, so two concurrent orders cannot oversell.
		for _, item := range order.Items {
			result, err := tx.ExecContext(ctx, `
				UPDATE medicines
				SET stock = stock - $1, updated_at = now()
				WHERE id = $2 AND stock >= $1
			`, item.Quantity, item.MedicineID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rows == 0 {
				return repository.ErrInsufficientStock
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (
				id, patient_id, prescription_id, status, total_cents,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			order.ID,
			order.PatientID,
			order.PrescriptionID,
			order.Status,
			order.TotalCents,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, medicine_id, quantity, unit_price_cents)
				VALUES ($1, $2, $3, $4)
			`,
				order.Items[i].OrderID,
				order.Items[i].MedicineID,
				order.Items[i].Quantity,
				order.Items[i].UnitPriceCents,
			)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		return insertOutboxEvents(ctx, tx, events)
	})
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `
		SELECT id, patient_id, prescription_id, status, total_cents, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var order model.Order
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, mapGetErr(err, "get order")
	}

	itemsQuery := `
		SELECT order_id, medicine_id, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = $1
	`
	if err := r.db.SelectContext(ctx, &order.Items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Order, error) {
	query := `
		SELECT id, patient_id, prescription_id, status, total_cents, created_at, updated_at
		FROM orders
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ListByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	query := `
		SELECT id, patient_id, prescription_id, status, total_cents, created_at, updated_at
		FROM orders
		WHERE status = $1
		ORDER BY created_at ASC
	`
	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, query, status); err != nil {
		return nil, fmt.Errorf("failed to list orders by status: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order, restock bool, events []*model.OutboxEvent) error {
	order.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3
		`, order.Status, order.UpdatedAt, order.ID)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		if restock {
			_, err := tx.ExecContext(ctx, `
				UPDATE medicines m
				SET stock = m.stock + i.quantity, updated_at = now()
				FROM order_items i
				WHERE i.order_id = $1 AND i.medicine_id = m.id
			`, order.ID)
			if err != nil {
				return fmt.Errorf("failed to restock items: %w", err)
			}
		}

		return insertOutboxEvents(ctx, tx, events)
	})
}
