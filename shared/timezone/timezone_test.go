package timezone_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/shared/timezone"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, timezone.Init("UTC")) })

	tests := []struct {
		name     string
		zone     string
		wantErr  bool
		wantName string
	}{
		{name: "empty keeps current", zone: "", wantName: "UTC"},
		{name: "iana name", zone: "Asia/Jakarta", wantName: "Asia/Jakarta"},
		{name: "unknown name", zone: "Mars/Olympus", wantErr: true, wantName: "Asia/Jakarta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := timezone.Init(tt.zone)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantName, timezone.Location().String())
		})
	}
}

func TestNow_UsesClockInUTC(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 16, 30, 0, 0, time.FixedZone("WIB", 7*60*60))

	restore := timezone.SetClock(func() time.Time { return fixed })

	assert.Equal(t, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), timezone.Now())
	assert.Equal(t, time.UTC, timezone.Now().Location())

	restore()

	assert.WithinDuration(t, time.Now(), timezone.Now(), time.Second)
}

func TestParseDay(t *testing.T) {
	day, err := timezone.ParseDay("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), day)

	_, err = timezone.ParseDay("10/03/2025")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, timezone.Init("UTC")) })

	ts := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-10T09:00:00Z", timezone.Format(ts))

	require.NoError(t, timezone.Init("Asia/Jakarta"))
	assert.Equal(t, "2025-03-10T16:00:00+07:00", timezone.Format(ts))
}
