package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idproof/pkg/domain-errors"
)

func mustZone(t *testing.T) *time.Location {
	t.Helper()
	zone, err := time.LoadLocation(ZoneName)
	require.NoError(t, err)
	return zone
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	t.Run("malformed cron", func(t *testing.T) {
		_, err := New(map[string][]Window{
			"VA": {{Cron: "not a cron", Duration: time.Hour}},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("non-positive duration", func(t *testing.T) {
		_, err := New(map[string][]Window{
			"VA": {{Cron: "0 2 * * *", Duration: 0}},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func TestInMaintenanceWindow(t *testing.T) {
	zone := mustZone(t)
	// Daily 02:00 New York, two hours.
	s, err := New(map[string][]Window{
		"VA": {{Cron: "0 2 * * *", Duration: 2 * time.Hour}},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before window", time.Date(2026, 3, 10, 1, 59, 59, 0, zone), false},
		{"window start is inclusive", time.Date(2026, 3, 10, 2, 0, 0, 0, zone), true},
		{"mid window", time.Date(2026, 3, 10, 3, 30, 0, 0, zone), true},
		{"window end is exclusive", time.Date(2026, 3, 10, 4, 0, 0, 0, zone), false},
		{"after window", time.Date(2026, 3, 10, 12, 0, 0, 0, zone), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.InMaintenanceWindow("VA", tt.at))
		})
	}

	t.Run("unknown jurisdiction is never in maintenance", func(t *testing.T) {
		assert.False(t, s.InMaintenanceWindow("ZZ", time.Date(2026, 3, 10, 3, 0, 0, 0, zone)))
	})
}

func TestInMaintenanceWindowConvertsZones(t *testing.T) {
	s, err := New(map[string][]Window{
		"VA": {{Cron: "0 2 * * *", Duration: 2 * time.Hour}},
	})
	require.NoError(t, err)

	// 08:00 UTC on a standard-time date is 03:00 New York, inside the window.
	assert.True(t, s.InMaintenanceWindow("VA", time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)))
	// 08:00 UTC during daylight saving is 04:00 New York, outside.
	assert.False(t, s.InMaintenanceWindow("VA", time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)))
}

func TestWeeklyWindowOnlyOnScheduledDay(t *testing.T) {
	zone := mustZone(t)
	// Sundays 02:00, 45 minutes.
	s, err := New(map[string][]Window{
		"MA": {{Cron: "0 2 * * 0", Duration: 45 * time.Minute}},
	})
	require.NoError(t, err)

	sunday := time.Date(2026, 3, 15, 2, 20, 0, 0, zone)
	require.Equal(t, time.Sunday, sunday.Weekday())
	assert.True(t, s.InMaintenanceWindow("MA", sunday))

	monday := sunday.AddDate(0, 0, 1)
	assert.False(t, s.InMaintenanceWindow("MA", monday))
}

func TestWindowsForState(t *testing.T) {
	s, err := New(map[string][]Window{
		"CA": {{Cron: "0 1 * * *", Duration: 4 * time.Hour}},
	})
	require.NoError(t, err)

	ranges := s.WindowsForState("CA")
	require.NotEmpty(t, ranges)
	for _, r := range ranges {
		assert.Equal(t, 4*time.Hour, r.End.Sub(r.Start))
	}

	assert.Nil(t, s.WindowsForState("ZZ"))
}

func TestDefaultWindowsCompile(t *testing.T) {
	_, err := New(DefaultWindows())
	require.NoError(t, err)
}
