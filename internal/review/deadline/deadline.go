// Package deadline turns a campaign due date into a human-readable urgency
// label. Pure functions only: callers inject "now" (services pass
// requestcontext.Now) so output is deterministic and testable.
package deadline

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Status is the urgency summary for a due date.
type Status struct {
	Label   string `json:"label"`
	Overdue bool   `json:"overdue"`
}

// Evaluate computes the urgency of dueDate relative to now. Day counts use
// ceiling semantics: one millisecond past the deadline already reads as
// "1 day overdue", and 23 hours out reads as "1 day remaining".
func Evaluate(dueDate *time.Time, now time.Time) Status {
	if dueDate == nil {
		return Status{Label: "No deadline"}
	}

	diff := dueDate.Sub(now)
	switch {
	case diff < 0:
		n := ceilDays(-diff)
		return Status{Label: fmt.Sprintf("%d %s overdue", n, dayWord(n)), Overdue: true}
	case diff == 0:
		return Status{Label: "Due today"}
	default:
		n := ceilDays(diff)
		return Status{Label: fmt.Sprintf("%d %s remaining", n, dayWord(n))}
	}
}

func ceilDays(d time.Duration) int64 {
	return int64((d + day - 1) / day)
}

func dayWord(n int64) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
