package summary

import (
	"sort"
	"time"
)

const (
	// SessionGap is the largest gap between consecutive events that still
	// belong to the same session.
	SessionGap = time.Hour
	// SessionPadding is the time credited after the last event of a session.
	SessionPadding = time.Hour
)

// Session is a contiguous cluster of events treated as one work period.
// End is the last event plus the padding.
type Session struct {
	Start  time.Time
	End    time.Time
	Events int
}

// Duration returns End - Start.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// ClusterSessions groups timestamps with the default gap and padding.
func ClusterSessions(times []time.Time) []Session {
	return ClusterSessionsWith(times, SessionGap, SessionPadding)
}

// ClusterSessionsWith sorts a copy of times and walks it once. A timestamp
// within gap of the previous one extends the current session; a larger gap
// closes it and starts a new one. Every session ends pad after its last event.
func ClusterSessionsWith(times []time.Time, gap, pad time.Duration) []Session {
	if len(times) == 0 {
		return nil
	}
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var sessions []Session
	start, prev, events := sorted[0], sorted[0], 1
	for _, t := range sorted[1:] {
		if t.Sub(prev) <= gap {
			prev = t
			events++
			continue
		}
		sessions = append(sessions, Session{Start: start, End: prev.Add(pad), Events: events})
		start, prev, events = t, t, 1
	}
	return append(sessions, Session{Start: start, End: prev.Add(pad), Events: events})
}

// TotalHours sums session durations in hours.
func TotalHours(sessions []Session) float64 {
	var total time.Duration
	for _, s := range sessions {
		total += s.Duration()
	}
	return total.Hours()
}

// WorkedHours clusters times and returns the total hours. Empty input yields 0.
func WorkedHours(times []time.Time) float64 {
	return TotalHours(ClusterSessions(times))
}
