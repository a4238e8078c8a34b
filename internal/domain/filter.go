package domain

import "time"

// RecencyWindow bounds which sensor readings and citizen reports a default
// read returns. Older records stay durable in storage but are not served.
const RecencyWindow = 24 * time.Hour

// Filter restricts a collection read to records whose Field (an epoch-millis
// value) is strictly greater than After. The zero Filter matches everything.
type Filter struct {
	Field string
	After int64
}

// IsZero reports whether the filter places no restriction on the read.
func (f Filter) IsZero() bool { return f.Field == "" }

// ActiveFilter builds the "currently relevant" predicate for a kind at the
// given instant. Sensor and citizen records are visible within the trailing
// recency window; pre-reports are visible while their declared end date is
// still in the future, regardless of start date.
//
// Callers serving a combined read must sample now once and reuse it for all
// three kinds so the response reflects a single snapshot instant.
func ActiveFilter(kind Kind, now time.Time) Filter {
	switch kind {
	case KindSensor, KindCitizen:
		return Filter{Field: "time", After: now.Add(-RecencyWindow).UnixMilli()}
	case KindPre:
		return Filter{Field: "endDate", After: now.UnixMilli()}
	default:
		panic("domain: unknown record kind " + string(kind))
	}
}
