package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"slotkeeper/internal/domains/availability/model"
	slotModel "slotkeeper/internal/domains/slot/model"
)

func TestReservation_IsActive(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Second)

	tests := []struct {
		name        string
		reservation model.Reservation
		active      bool
		redeemable  bool
	}{
		{name: "locked and fresh", reservation: model.Reservation{Status: model.StatusLocked, ExpiresAt: &future}, active: true, redeemable: true},
		{name: "locked but expired", reservation: model.Reservation{Status: model.StatusLocked, ExpiresAt: &past}, active: false},
		{name: "locked expiring exactly now", reservation: model.Reservation{Status: model.StatusLocked, ExpiresAt: &now}, active: false},
		{name: "locked without expiry", reservation: model.Reservation{Status: model.StatusLocked}, active: false},
		{name: "confirmed", reservation: model.Reservation{Status: model.StatusConfirmed}, active: true},
		{name: "released", reservation: model.Reservation{Status: model.StatusReleased, ExpiresAt: &future}, active: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.active, tt.reservation.IsActive(now))
			assert.Equal(t, tt.redeemable, tt.reservation.IsRedeemable(now))
		})
	}
}

func TestFreeSeat(t *testing.T) {
	assert.Equal(t, 1, model.FreeSeat(nil, 1))
	assert.Equal(t, 0, model.FreeSeat([]int{1}, 1))
	assert.Equal(t, 2, model.FreeSeat([]int{1, 3}, 3))
	assert.Equal(t, 0, model.FreeSeat([]int{2, 1, 3}, 3))
	assert.Equal(t, 0, model.FreeSeat(nil, 0))
}

func TestReleaseReason_Valid(t *testing.T) {
	assert.True(t, model.ReleaseManual.Valid())
	assert.True(t, model.ReleaseExpired.Valid())
	assert.True(t, model.ReleaseCancelled.Valid())
	assert.False(t, model.ReleaseReason("bored").Valid())
}

func TestNewToken(t *testing.T) {
	a, b := model.NewToken(), model.NewToken()

	assert.True(t, strings.HasPrefix(a, "resv_"))
	assert.NotEqual(t, a, b)
}

func TestSlotKey_NormalizesZone(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	assert.Equal(t,
		model.SlotKey("u", "s", start),
		model.SlotKey("u", "s", start.In(time.FixedZone("X", 3600))),
	)
}

func TestComputeAvailability(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	slots := []slotModel.Slot{
		{TemplateID: "pm", Start: at(14, 0), End: at(14, 30), Capacity: 2},
		{TemplateID: "am", Start: at(9, 0), End: at(9, 30), Capacity: 1},
		{TemplateID: "am", Start: at(9, 30), End: at(10, 0), Capacity: 1},
	}

	usage := model.Usage{
		at(9, 0).Unix():  1,
		at(14, 0).Unix(): 5,
	}

	got := model.ComputeAvailability(slots, usage)

	assert.Len(t, got, 3)

	assert.Equal(t, at(9, 0), got[0].Start)
	assert.False(t, got[0].Available)
	assert.Equal(t, 0, got[0].RemainingCapacity)

	assert.Equal(t, at(9, 30), got[1].Start)
	assert.True(t, got[1].Available)
	assert.Equal(t, 1, got[1].RemainingCapacity)

	assert.Equal(t, at(14, 0), got[2].Start)
	assert.Equal(t, 0, got[2].RemainingCapacity, "over-subscription clamps to zero")
	assert.Equal(t, 5, got[2].Taken)
}
