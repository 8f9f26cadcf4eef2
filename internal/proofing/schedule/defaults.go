package schedule

import "time"

// DefaultWindows is the published maintenance calendar for state ID vendors,
// keyed by jurisdiction code. Times are America/New_York. This is static
// operator data; it changes by deploy, not at runtime.
func DefaultWindows() map[string][]Window {
	return map[string][]Window{
		"CA": {
			// Nightly batch load.
			{Cron: "0 1 * * *", Duration: 4 * time.Hour},
		},
		"CO": {
			{Cron: "45 1 * * 0", Duration: 90 * time.Minute},
		},
		"DC": {
			{Cron: "0 0 * * *", Duration: 6 * time.Hour},
		},
		"FL": {
			{Cron: "0 7 * * 0", Duration: 2 * time.Hour},
		},
		"MA": {
			{Cron: "0 2 * * 0", Duration: 45 * time.Minute},
			// First Saturday of the month, extended patching.
			{Cron: "0 22 1-7 * 6", Duration: 5 * time.Hour},
		},
		"NY": {
			{Cron: "0 22 * * 0", Duration: 30 * time.Minute},
		},
		"TX": {
			{Cron: "30 23 * * 6", Duration: 4 * time.Hour},
		},
		"WA": {
			{Cron: "30 6 * * 0", Duration: 90 * time.Minute},
		},
	}
}
