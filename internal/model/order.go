package model

import "github.com/google/uuid"

type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "placed"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPlaced:     {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusDispatched, OrderStatusCancelled},
	OrderStatusDispatched: {OrderStatusDelivered},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the order has not yet left the pharmacy.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPlaced || s == OrderStatusConfirmed
}

type Order struct {
	Base
	PatientID      uuid.UUID   `json:"patient_id" db:"patient_id"`
	PrescriptionID *uuid.UUID  `json:"prescription_id,omitempty" db:"prescription_id"`
	Status         OrderStatus `json:"status" db:"status"`
	TotalCents     int64       `json:"total_cents" db:"total_cents"`
	Items          []OrderItem `json:"items,omitempty" db:"-"`
}

type OrderItem struct {
	OrderID        uuid.UUID `json:"-" db:"order_id"`
	MedicineID     uuid.UUID `json:"medicine_id" db:"medicine_id"`
	Quantity       int       `json:"quantity" db:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents" db:"unit_price_cents"`
}

type PlaceOrderRequest struct {
	PrescriptionID string             `json:"prescription_id" binding:"omitempty,uuid"`
	Items          []PlaceOrderItem   `json:"items" binding:"required,min=1,dive"`
}

type PlaceOrderItem struct {
	MedicineID string `json:"medicine_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}
