package domain

import (
	"strconv"
	"strings"
)

// Default pre-burn notification radius in kilometers when the client omits one.
const defaultRangeKm = 0.1

// Normalize converts an untyped request payload into a well-typed record for
// the given kind. Required fields must be present and numeric; payloads that
// arrive with numbers encoded as strings (common with embedded-sensor HTTP
// clients) are coerced. The one lenient field is "time": when absent or
// non-numeric it defaults to the current wall clock in epoch milliseconds.
//
// CreatedAt is NOT set here; the store gateway stamps it at insert time.
func Normalize(kind Kind, payload map[string]any) (Record, error) {
	switch kind {
	case KindSensor:
		return normalizeSensor(payload)
	case KindCitizen:
		return normalizeCitizen(payload)
	case KindPre:
		return normalizePre(payload)
	default:
		panic("domain: unknown record kind " + string(kind))
	}
}

func normalizeSensor(payload map[string]any) (Record, error) {
	p := newParser(KindSensor, payload)

	rec := &SensorReading{
		Lat:      p.required("lat"),
		Lon:      p.required("lon"),
		Smoke:    p.required("smoke"),
		Temp:     p.required("temp"),
		Humidity: p.optional("humidity", 0),
		Time:     p.eventTime("time"),
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return rec, nil
}

func normalizeCitizen(payload map[string]any) (Record, error) {
	p := newParser(KindCitizen, payload)

	rec := &CitizenReport{
		Lat:  p.required("lat"),
		Lon:  p.required("lon"),
		Time: p.eventTime("time"),
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return rec, nil
}

func normalizePre(payload map[string]any) (Record, error) {
	p := newParser(KindPre, payload)

	rec := &PreReport{
		Lat:       p.required("lat"),
		Lon:       p.required("lon"),
		StartDate: int64(p.required("startDate")),
		EndDate:   int64(p.required("endDate")),
		RangeKm:   p.optional("rangeKm", defaultRangeKm),
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// parser accumulates missing/invalid field names across a payload so a single
// ValidationError can name everything wrong with the request at once.
type parser struct {
	kind    Kind
	payload map[string]any
	missing []string
	invalid []string
}

func newParser(kind Kind, payload map[string]any) *parser {
	return &parser{kind: kind, payload: payload}
}

// required returns the named field as a float64, recording it as missing or
// invalid when it is absent or not parseable as a number.
func (p *parser) required(name string) float64 {
	raw, ok := p.payload[name]
	if !ok || raw == nil {
		p.missing = append(p.missing, name)
		return 0
	}
	v, ok := toFloat(raw)
	if !ok {
		p.invalid = append(p.invalid, name)
		return 0
	}
	return v
}

// optional returns the named field as a float64, or def when absent. A value
// that is present but non-numeric is still recorded as invalid: silently
// substituting a default would hide malformed client data.
func (p *parser) optional(name string, def float64) float64 {
	raw, ok := p.payload[name]
	if !ok || raw == nil {
		return def
	}
	v, ok := toFloat(raw)
	if !ok {
		p.invalid = append(p.invalid, name)
		return def
	}
	return v
}

// eventTime returns the client-supplied event time in epoch milliseconds,
// defaulting to the current wall clock when the field is absent or
// non-numeric. Sensors with drifting or unset RTCs routinely omit it.
func (p *parser) eventTime(name string) int64 {
	raw, ok := p.payload[name]
	if ok && raw != nil {
		if v, ok := toFloat(raw); ok {
			return int64(v)
		}
	}
	return clock.Now().UnixMilli()
}

func (p *parser) err() error {
	if len(p.missing) == 0 && len(p.invalid) == 0 {
		return nil
	}
	return &ValidationError{Kind: p.kind, Missing: p.missing, Invalid: p.invalid}
}

// toFloat coerces JSON numbers and numeric strings to float64 using
// locale-independent parsing. Booleans, objects, and arrays are rejected.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
