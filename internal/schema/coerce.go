package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Coerce converts a raw field into the Go value inserted for col.
//
//	""        -> nil (NULL) for every type
//	integer   -> int64
//	float     -> float64
//	boolean   -> bool (true/false, t/f, yes/no, y/n, 1/0)
//	date      -> time.Time (UTC midnight)
//	timestamp -> time.Time
//	text      -> string, unchanged
//
// Dates and timestamps use col.Layout when set, otherwise every known layout
// of that type is tried in order.
func Coerce(col Column, raw string) (any, error) {
	if col.Type == Text || col.Type == "" {
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}

	switch col.Type {
	case Integer:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil

	case Float:
		f, err := parseFloat(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return f, nil

	case Boolean:
		switch strings.ToLower(s) {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		b, ok := boolWords[strings.ToLower(s)]
		if !ok {
			return nil, fmt.Errorf("%q is not a boolean", s)
		}
		return b, nil

	case Date:
		return parseTime(s, col.Layout, DateLayouts, "date")

	case Timestamp:
		return parseTime(s, col.Layout, TimestampLayouts, "timestamp")
	}
	return nil, fmt.Errorf("unsupported type %q", col.Type)
}

func parseTime(s, layout string, fallback []string, kind string) (any, error) {
	layouts := fallback
	if layout != "" {
		layouts = []string{layout}
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%q is not a %s", s, kind)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return f, nil
}
