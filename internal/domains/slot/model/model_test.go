package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/internal/domains/slot/model"
	"slotkeeper/shared/failure"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func morningTemplate() model.SlotTemplate {
	return model.SlotTemplate{
		ID:                  "tpl-1",
		UnitID:              "unit-1",
		ServiceID:           "svc-1",
		Weekday:             int(time.Monday),
		StartTime:           "09:00",
		EndTime:             "11:00",
		SlotDurationMinutes: 30,
		CapacityPerSlot:     1,
	}
}

func TestGenerateSlots_FourHalfHours(t *testing.T) {
	slots, err := model.GenerateSlots(morningTemplate(), monday)
	require.NoError(t, err)

	require.Len(t, slots, 4)

	want := []string{"09:00", "09:30", "10:00", "10:30"}
	for i, slot := range slots {
		assert.Equal(t, want[i], slot.Start.Format("15:04"))
		assert.Equal(t, 30*time.Minute, slot.End.Sub(slot.Start))
		assert.Equal(t, 1, slot.Capacity)
		assert.Equal(t, "tpl-1", slot.TemplateID)
	}
}

func TestGenerateSlots_Grid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.SlotTemplate)
		starts []string
	}{
		{
			name:   "buffer between slots",
			mutate: func(tpl *model.SlotTemplate) { tpl.BufferMinutes = 15 },
			starts: []string{"09:00", "09:45", "10:30"},
		},
		{
			name:   "last slot would overrun the window",
			mutate: func(tpl *model.SlotTemplate) { tpl.SlotDurationMinutes = 45 },
			starts: []string{"09:00", "09:45"},
		},
		{
			name:   "window shorter than one slot",
			mutate: func(tpl *model.SlotTemplate) { tpl.EndTime = "09:20" },
			starts: nil,
		},
		{
			name:   "seconds precision clock",
			mutate: func(tpl *model.SlotTemplate) { tpl.StartTime = "09:00:00"; tpl.EndTime = "10:00:00" },
			starts: []string{"09:00", "09:30"},
		},
		{
			name:   "end before start",
			mutate: func(tpl *model.SlotTemplate) { tpl.StartTime = "12:00" },
			starts: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := morningTemplate()
			tt.mutate(&tpl)

			slots, err := model.GenerateSlots(tpl, monday)
			require.NoError(t, err)

			var got []string
			for _, slot := range slots {
				got = append(got, slot.Start.Format("15:04"))
			}

			assert.Equal(t, tt.starts, got)
		})
	}
}

func TestGenerateSlots_Properties(t *testing.T) {
	templates := []model.SlotTemplate{
		morningTemplate(),
		{StartTime: "08:10", EndTime: "17:55", SlotDurationMinutes: 25, BufferMinutes: 5, CapacityPerSlot: 3},
		{StartTime: "00:00", EndTime: "23:59", SlotDurationMinutes: 7, BufferMinutes: 0, CapacityPerSlot: 2},
		{StartTime: "13:00:30", EndTime: "14:00", SlotDurationMinutes: 10, BufferMinutes: 1, CapacityPerSlot: 1},
	}

	for _, tpl := range templates {
		first, err := model.GenerateSlots(tpl, monday.Add(13*time.Hour))
		require.NoError(t, err)

		second, err := model.GenerateSlots(tpl, monday)
		require.NoError(t, err)

		assert.Equal(t, first, second, "same template and day must yield the same grid")

		windowStart, _ := time.Parse("15:04:05", normalize(tpl.StartTime))
		windowEnd, _ := time.Parse("15:04:05", normalize(tpl.EndTime))
		lower := monday.Add(time.Duration(windowStart.Hour())*time.Hour + time.Duration(windowStart.Minute())*time.Minute + time.Duration(windowStart.Second())*time.Second)
		upper := monday.Add(time.Duration(windowEnd.Hour())*time.Hour + time.Duration(windowEnd.Minute())*time.Minute)

		for i, slot := range first {
			assert.False(t, slot.Start.Before(lower))
			assert.False(t, slot.End.After(upper))
			assert.True(t, slot.End.After(slot.Start))
			assert.Equal(t, tpl.CapacityPerSlot, slot.Capacity)

			if i > 0 {
				assert.False(t, slot.Start.Before(first[i-1].End), "slots must not overlap")
			}
		}
	}
}

func normalize(clock string) string {
	if len(clock) == len("15:04") {
		return clock + ":00"
	}

	return clock
}

func TestGenerateSlots_InvalidTemplate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.SlotTemplate)
	}{
		{name: "zero duration", mutate: func(tpl *model.SlotTemplate) { tpl.SlotDurationMinutes = 0 }},
		{name: "negative buffer", mutate: func(tpl *model.SlotTemplate) { tpl.BufferMinutes = -5 }},
		{name: "bad start clock", mutate: func(tpl *model.SlotTemplate) { tpl.StartTime = "9am" }},
		{name: "bad end clock", mutate: func(tpl *model.SlotTemplate) { tpl.EndTime = "25:00" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := morningTemplate()
			tt.mutate(&tpl)

			_, err := model.GenerateSlots(tpl, monday)

			assert.True(t, failure.IsValidation(err), "got %v", err)
		})
	}
}

func TestMatchSlot(t *testing.T) {
	tuesday := morningTemplate()
	tuesday.ID = "tpl-tue"
	tuesday.Weekday = int(time.Tuesday)

	afternoon := morningTemplate()
	afternoon.ID = "tpl-pm"
	afternoon.StartTime = "14:00"
	afternoon.EndTime = "16:00"
	afternoon.CapacityPerSlot = 2

	templates := []model.SlotTemplate{tuesday, morningTemplate(), afternoon}

	tests := []struct {
		name       string
		start      time.Time
		wantFound  bool
		wantID     string
		wantEndHHM string
	}{
		{name: "exact grid start", start: monday.Add(9*time.Hour + 30*time.Minute), wantFound: true, wantID: "tpl-1", wantEndHHM: "10:00"},
		{name: "second template", start: monday.Add(15 * time.Hour), wantFound: true, wantID: "tpl-pm", wantEndHHM: "15:30"},
		{name: "off grid", start: monday.Add(9*time.Hour + 10*time.Minute), wantFound: false},
		{name: "outside window", start: monday.Add(11 * time.Hour), wantFound: false},
		{name: "other weekday", start: monday.AddDate(0, 0, 2).Add(9 * time.Hour), wantFound: false},
		{name: "non UTC input", start: monday.Add(9 * time.Hour).In(time.FixedZone("UTC+7", 7*3600)), wantFound: true, wantID: "tpl-1", wantEndHHM: "09:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, slot, found := model.MatchSlot(templates, tt.start)

			assert.Equal(t, tt.wantFound, found)

			if tt.wantFound {
				assert.Equal(t, tt.wantID, tpl.ID)
				assert.Equal(t, tt.wantEndHHM, slot.End.Format("15:04"))
			}
		})
	}
}
