package httpapi

import (
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
)

const dateOnly = "2006-01-02"

func pageRequest(q url.Values) (services.PageRequest, error) {
	var p services.PageRequest
	verr := &common.ValidationError{}
	if v := q.Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			verr.Add("page", "must be an integer")
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			verr.Add("limit", "must be an integer")
		}
		p.Limit = n
	}
	return p, verr.OrNil()
}

// parseTime accepts RFC 3339 timestamps and plain dates. A plain date used
// as an end bound extends to the end of that day.
func parseTime(v string, end bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return time.Time{}, false
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// dateRange reads startDate and endDate. Both bounds are inclusive.
func dateRange(q url.Values) (from, to *time.Time, err error) {
	verr := &common.ValidationError{}
	if v := q.Get("startDate"); v != "" {
		if t, ok := parseTime(v, false); ok {
			from = &t
		} else {
			verr.Add("startDate", "must be a date or RFC 3339 timestamp")
		}
	}
	if v := q.Get("endDate"); v != "" {
		if t, ok := parseTime(v, true); ok {
			to = &t
		} else {
			verr.Add("endDate", "must be a date or RFC 3339 timestamp")
		}
	}
	return from, to, verr.OrNil()
}

func parseBool(q url.Values, key string) (*bool, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, common.NewValidationError("must be true or false", key)
	}
	return &b, nil
}

func searchTerm(q url.Values) string {
	if v := q.Get("searchTerm"); v != "" {
		return v
	}
	return q.Get("search")
}
