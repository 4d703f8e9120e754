package model

import "time"

// StatusCount is one bucket of a per-status aggregation.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int    `json:"count" db:"count"`
}

// DayCount is one bucket of a per-day histogram.
type DayCount struct {
	Day   time.Time `json:"day" db:"day"`
	Count int       `json:"count" db:"count"`
}

// MedicineCount ranks a medicine by total ordered quantity.
type MedicineCount struct {
	MedicineID string `json:"medicine_id" db:"medicine_id"`
	Name       string `json:"name" db:"name"`
	Quantity   int    `json:"quantity" db:"quantity"`
}

// OrderTotals summarizes order volume and revenue over a window.
type OrderTotals struct {
	Orders       int   `json:"orders" db:"orders"`
	RevenueCents int64 `json:"revenue_cents" db:"revenue_cents"`
}
