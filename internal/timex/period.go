package timex

import (
	"fmt"
	"time"
)

// Period is a half-open time interval [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// Length returns the duration covered by the period.
func (p Period) Length() time.Duration {
	return p.To.Sub(p.From)
}

// Previous returns the period of equal length that ends where p starts.
func (p Period) Previous() Period {
	return Period{From: p.From.Add(-p.Length()), To: p.From}
}

// NamedPeriod resolves "week", "month" or "year" to the period ending at now.
func NamedPeriod(name string, now time.Time) (Period, error) {
	switch name {
	case "week":
		return Period{From: now.AddDate(0, 0, -7), To: now}, nil
	case "", "month":
		return Period{From: now.AddDate(0, -1, 0), To: now}, nil
	case "year":
		return Period{From: now.AddDate(-1, 0, 0), To: now}, nil
	default:
		return Period{}, fmt.Errorf("unknown range %q", name)
	}
}
