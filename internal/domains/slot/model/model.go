package model

import (
	"fmt"
	"time"

	"slotkeeper/shared/failure"
)

const (
	TableName  = "slot_templates"
	EntityName = "slot_template"

	FieldID        = "id"
	FieldUnitID    = "unit_id"
	FieldServiceID = "service_id"
	FieldWeekday   = "weekday"
)

// SlotTemplate is recurring capacity for one unit and service on one weekday.
// StartTime and EndTime are UTC wall clock values formatted HH:MM or HH:MM:SS.
type SlotTemplate struct {
	ID                  string  `db:"id"`
	UnitID              string  `db:"unit_id"`
	ServiceID           string  `db:"service_id"`
	ResourceID          *string `db:"resource_id"`
	Weekday             int     `db:"weekday"`
	StartTime           string  `db:"start_time"`
	EndTime             string  `db:"end_time"`
	SlotDurationMinutes int     `db:"slot_duration_minutes"`
	BufferMinutes       int     `db:"buffer_minutes"`
	CapacityPerSlot     int     `db:"capacity_per_slot"`
}

// Slot is one generated interval. Its identity downstream is Start.
type Slot struct {
	TemplateID string
	Start      time.Time
	End        time.Time
	Capacity   int
}

// GenerateSlots lays the template's grid over day. Only the calendar date of day is used.
// The result is ordered, non-overlapping and lies within [StartTime, EndTime).
func GenerateSlots(template SlotTemplate, day time.Time) ([]Slot, error) {
	if template.SlotDurationMinutes <= 0 {
		return nil, failure.Validation("slot duration must be positive") // nolint:wrapcheck
	}

	if template.BufferMinutes < 0 {
		return nil, failure.Validation("slot buffer must not be negative") // nolint:wrapcheck
	}

	startOffset, err := parseClock(template.StartTime)
	if err != nil {
		return nil, err
	}

	endOffset, err := parseClock(template.EndTime)
	if err != nil {
		return nil, err
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	windowEnd := midnight.Add(endOffset)
	duration := time.Duration(template.SlotDurationMinutes) * time.Minute
	step := duration + time.Duration(template.BufferMinutes)*time.Minute

	var slots []Slot

	for cursor := midnight.Add(startOffset); !cursor.Add(duration).After(windowEnd); cursor = cursor.Add(step) {
		slots = append(slots, Slot{
			TemplateID: template.ID,
			Start:      cursor,
			End:        cursor.Add(duration),
			Capacity:   template.CapacityPerSlot,
		})
	}

	return slots, nil
}

// MatchSlot finds the template whose grid for start's day has a slot beginning exactly at start.
func MatchSlot(templates []SlotTemplate, start time.Time) (SlotTemplate, Slot, bool) {
	start = start.UTC()

	for _, template := range templates {
		if template.Weekday != int(start.Weekday()) {
			continue
		}

		slots, err := GenerateSlots(template, start)
		if err != nil {
			continue
		}

		for _, slot := range slots {
			if slot.Start.Equal(start) {
				return template, slot, true
			}
		}
	}

	return SlotTemplate{}, Slot{}, false
}

func parseClock(value string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return time.Duration(parsed.Hour())*time.Hour +
				time.Duration(parsed.Minute())*time.Minute +
				time.Duration(parsed.Second())*time.Second, nil
		}
	}

	return 0, failure.Validation(fmt.Sprintf("invalid clock value %q", value)) // nolint:wrapcheck
}
