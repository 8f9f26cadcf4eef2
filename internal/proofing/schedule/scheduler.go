// Package schedule answers whether a jurisdiction's state ID vendor is inside
// a known recurring maintenance window. The scheduler makes no call/no-call
// decision itself; consumers treat an occupied window as a soft signal.
package schedule

import (
	"time"

	"github.com/robfig/cron/v3"

	dErrors "idproof/pkg/domain-errors"
)

// Window describes one recurring blackout as a cron trigger plus how long the
// outage lasts from each trigger.
type Window struct {
	Cron     string
	Duration time.Duration
}

// Range is one concrete [Start, End) occurrence of a window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

type compiledWindow struct {
	schedule cron.Schedule
	duration time.Duration
}

// Scheduler holds the static jurisdiction table. All comparisons happen in a
// single named zone; callers in other zones must convert before calling.
type Scheduler struct {
	zone    *time.Location
	windows map[string][]compiledWindow
}

// ZoneName is the zone all window definitions are anchored to.
const ZoneName = "America/New_York"

// lookback bounds the search for the most recent cron trigger. Windows recur
// at least monthly, so five weeks always contains a trigger.
const lookback = 35 * 24 * time.Hour

// New compiles the window table. A malformed cron expression is a
// configuration error and should stop boot.
func New(table map[string][]Window) (*Scheduler, error) {
	zone, err := time.LoadLocation(ZoneName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "load maintenance window zone")
	}
	compiled := make(map[string][]compiledWindow, len(table))
	for jurisdiction, windows := range table {
		for _, w := range windows {
			// Pin the schedule to the canonical zone regardless of the
			// process-local zone.
			sched, err := cron.ParseStandard("CRON_TZ=" + ZoneName + " " + w.Cron)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "parse maintenance window cron for "+jurisdiction)
			}
			if w.Duration <= 0 {
				return nil, dErrors.Newf(dErrors.CodeConfiguration, "maintenance window for %s has non-positive duration", jurisdiction)
			}
			compiled[jurisdiction] = append(compiled[jurisdiction], compiledWindow{schedule: sched, duration: w.Duration})
		}
	}
	return &Scheduler{zone: zone, windows: compiled}, nil
}

// InMaintenanceWindow reports whether at falls inside any window configured
// for the jurisdiction. Unknown jurisdictions are simply never in maintenance.
func (s *Scheduler) InMaintenanceWindow(jurisdiction string, at time.Time) bool {
	at = at.In(s.zone)
	for _, w := range s.windows[jurisdiction] {
		trigger, ok := mostRecentTrigger(w.schedule, at)
		if !ok {
			continue
		}
		if (Range{Start: trigger, End: trigger.Add(w.duration)}).Contains(at) {
			return true
		}
	}
	return false
}

// WindowsForState expands each window into concrete ranges around now: the
// most recent occurrence and the upcoming one. Used for diagnostics and
// operator tooling; returns nil for unknown jurisdictions.
func (s *Scheduler) WindowsForState(jurisdiction string) []Range {
	now := time.Now().In(s.zone)
	var out []Range
	for _, w := range s.windows[jurisdiction] {
		if trigger, ok := mostRecentTrigger(w.schedule, now); ok {
			out = append(out, Range{Start: trigger, End: trigger.Add(w.duration)})
		}
		next := w.schedule.Next(now)
		if !next.IsZero() {
			out = append(out, Range{Start: next, End: next.Add(w.duration)})
		}
	}
	return out
}

// mostRecentTrigger walks forward from a bounded lookback to find the last
// trigger at or before at. Cron schedules only expose Next, so prev is
// derived by iteration.
func mostRecentTrigger(sched cron.Schedule, at time.Time) (time.Time, bool) {
	cursor := at.Add(-lookback)
	var prev time.Time
	found := false
	for {
		next := sched.Next(cursor)
		if next.IsZero() || next.After(at) {
			break
		}
		prev = next
		found = true
		cursor = next
	}
	return prev, found
}
