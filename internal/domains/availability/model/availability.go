package model

import (
	"slices"
	"time"

	slotModel "slotkeeper/internal/domains/slot/model"
)

// SlotAvailability is a point-in-time estimate. It can be stale by the time a lock is attempted.
type SlotAvailability struct {
	TemplateID        string
	Start             time.Time
	End               time.Time
	Capacity          int
	Taken             int
	RemainingCapacity int
	Available         bool
}

// Usage counts capacity consumers per slot start in unix seconds.
type Usage map[int64]int

// ComputeAvailability merges grids from every template and subtracts usage.
// Slots are ordered by start. Two templates producing the same start are reported separately.
func ComputeAvailability(slots []slotModel.Slot, usage Usage) []SlotAvailability {
	result := make([]SlotAvailability, 0, len(slots))

	for _, slot := range slots {
		taken := usage[slot.Start.Unix()]
		remaining := max(slot.Capacity-taken, 0)

		result = append(result, SlotAvailability{
			TemplateID:        slot.TemplateID,
			Start:             slot.Start,
			End:               slot.End,
			Capacity:          slot.Capacity,
			Taken:             taken,
			RemainingCapacity: remaining,
			Available:         remaining > 0,
		})
	}

	slices.SortStableFunc(result, func(a, b SlotAvailability) int {
		return a.Start.Compare(b.Start)
	})

	return result
}
