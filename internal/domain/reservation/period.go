package reservation

import (
	"fmt"
	"time"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Period is a closed interval of calendar dates [start, end]. Both ends are
// stored as midnight UTC of the caller's calendar date.
type Period struct {
	start time.Time
	end   time.Time
}

// NewPeriod builds a Period from two dates. The time-of-day part is discarded.
func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, domain.NewValidationError("start and end dates are required")
	}
	s, e := toDate(start), toDate(end)
	if s.After(e) {
		return Period{}, domain.NewValidationError(
			fmt.Sprintf("start date %s is after end date %s", s.Format(DateLayout), e.Format(DateLayout)))
	}
	return Period{start: s, end: e}, nil
}

// ParsePeriod builds a Period from two YYYY-MM-DD strings.
func ParsePeriod(start, end string) (Period, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Period{}, domain.NewValidationError(fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", start))
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Period{}, domain.NewValidationError(fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", end))
	}
	return NewPeriod(s, e)
}

// Start returns the first day of the period.
func (p Period) Start() time.Time { return p.start }

// End returns the last day of the period, inclusive.
func (p Period) End() time.Time { return p.end }

// IsZero reports whether p was never set.
func (p Period) IsZero() bool { return p.start.IsZero() && p.end.IsZero() }

// Days returns the number of calendar days covered, counting both ends.
func (p Period) Days() int {
	return int((p.end.Unix()-p.start.Unix())/secondsPerDay) + 1
}

// Overlaps reports whether the two closed intervals share at least one day.
// A period ending on the day another starts overlaps it.
func (p Period) Overlaps(other Period) bool {
	return !(p.end.Before(other.start) || p.start.After(other.end))
}

// String formats the period as "start..end".
func (p Period) String() string {
	return p.start.Format(DateLayout) + ".." + p.end.Format(DateLayout)
}

func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
