package schedule

import "time"

// DefaultSlotInterval is the appointment length used when a doctor has
// not configured one.
const DefaultSlotInterval = 30 * time.Minute

// Slots returns the slot start times covering [start, end) at the given
// interval. Only slots that fit entirely inside the window are emitted,
// so the count is (end-start)/interval rounded down. A degenerate window
// (start >= end) yields nil rather than an error.
func Slots(start, end TimeOfDay, interval time.Duration) []TimeOfDay {
	step := TimeOfDay(interval / time.Minute)
	if step <= 0 || !start.Valid() || !end.Valid() || start >= end {
		return nil
	}

	var slots []TimeOfDay
	for t := start; t+step <= end; t += step {
		slots = append(slots, t)
	}
	return slots
}

// Contains reports whether slot is one of the start times Slots would
// produce for the window.
func Contains(start, end TimeOfDay, interval time.Duration, slot TimeOfDay) bool {
	step := TimeOfDay(interval / time.Minute)
	if step <= 0 || !start.Valid() || !end.Valid() {
		return false
	}
	return slot >= start && slot+step <= end && (slot-start)%step == 0
}
