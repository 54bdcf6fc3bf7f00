package recon

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// toNumber coerces an arbitrary upstream value to a finite float64. The
// second return value reports whether a usable number was found; absence
// is distinct from zero in every fallback chain, so callers must not
// treat (0, false) as a zero amount.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		return parseNumericString(n)
	case map[string]interface{}:
		// Object-wrapped decimals: {"$numberDecimal": "12.50"} or {"value": ...}.
		if inner, ok := n["$numberDecimal"]; ok {
			return toNumber(inner)
		}
		if inner, ok := n["value"]; ok {
			return toNumber(inner)
		}
		return 0, false
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumericString strips everything that is not a digit, '.', '+' or
// '-' (currency symbols, thousands separators, whitespace) before
// parsing.
func parseNumericString(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '+' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// toTime coerces an arbitrary upstream value to a timestamp. It accepts
// time.Time values, common string layouts, epoch seconds or
// milliseconds, and wrapper objects ({"$date": ...} or {"value": ...}).
func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		// Some revisions send epoch values as strings.
		if f, ok := parseNumericString(s); ok {
			return epochToTime(f)
		}
		return time.Time{}, false
	case map[string]interface{}:
		if inner, ok := t["$date"]; ok {
			return toTime(inner)
		}
		if inner, ok := t["value"]; ok {
			return toTime(inner)
		}
		return time.Time{}, false
	default:
		if f, ok := toNumber(v); ok {
			return epochToTime(f)
		}
		return time.Time{}, false
	}
}

// epochToTime interprets a numeric timestamp as epoch seconds, or epoch
// milliseconds when the magnitude rules seconds out.
func epochToTime(f float64) (time.Time, bool) {
	if f <= 0 {
		return time.Time{}, false
	}
	// Beyond ~5138 AD in seconds; treat as milliseconds.
	if f > 1e11 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Unix(int64(f), 0).UTC(), true
}

// toString coerces plain string values; anything else is treated as
// absent rather than stringified, so stray objects never leak into
// titles or identifiers.
func toString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// toBool recognizes booleans and their common string spellings.
func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

// firstNumber walks the candidate fields in order and returns the first
// value that coerces to a finite number greater than zero.
func firstNumber(raw RawRecord, fields []string) (float64, bool) {
	for _, f := range fields {
		v, present := raw[f]
		if !present {
			continue
		}
		if n, ok := toNumber(v); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// firstTime returns the first candidate field that parses to a valid
// timestamp.
func firstTime(raw RawRecord, fields []string) (time.Time, bool) {
	for _, f := range fields {
		v, present := raw[f]
		if !present {
			continue
		}
		if t, ok := toTime(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// firstString returns the first candidate field holding a non-empty
// string.
func firstString(raw RawRecord, fields []string) (string, bool) {
	for _, f := range fields {
		v, present := raw[f]
		if !present {
			continue
		}
		if s, ok := toString(v); ok {
			return s, true
		}
	}
	return "", false
}
