// Package schema infers column types from sampled CSV values and coerces raw
// strings into typed values for insertion.
//
// Everything here is pure: no I/O, no clocks, no globals that change.
package schema

import (
	"strconv"
	"strings"
	"time"
)

// Type is the logical column type shared by inference, DDL and coercion.
type Type string

const (
	Text      Type = "text"
	Integer   Type = "integer"
	Float     Type = "float"
	Boolean   Type = "boolean"
	Date      Type = "date"
	Timestamp Type = "timestamp"
)

// Column is an inferred column type plus, for dates and timestamps, the
// layout that matched every sampled value.
type Column struct {
	Type   Type
	Layout string
}

// DateLayouts are accepted date formats (no time component), in preference
// order. Day-first wins over month-first for ambiguous values.
var DateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"20060102",
	"02.01.2006",
	"01.02.2006",
	"02/01/2006",
	"01/02/2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// TimestampLayouts are accepted timestamp formats (with time component).
var TimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
}

// InferType guesses a type for a column from a sample of its values. A type
// is chosen only when every non-empty value satisfies it; empty values are
// ignored and an all-empty sample is text. Precedence: integer, boolean,
// float, date, timestamp, text.
func InferType(values []string) Type {
	return InferColumn(values).Type
}

// InferColumn is InferType plus the date/timestamp layout that matched.
func InferColumn(values []string) Column {
	nonEmpty := nonEmptyTrimmed(values)
	if len(nonEmpty) == 0 {
		return Column{Type: Text}
	}
	if allMatch(nonEmpty, isInt) {
		return Column{Type: Integer}
	}
	if allMatch(nonEmpty, isBoolWord) {
		return Column{Type: Boolean}
	}
	if allMatch(nonEmpty, isFloat) {
		return Column{Type: Float}
	}
	if layout, ok := commonLayout(nonEmpty, DateLayouts); ok {
		return Column{Type: Date, Layout: layout}
	}
	if layout, ok := commonLayout(nonEmpty, TimestampLayouts); ok {
		return Column{Type: Timestamp, Layout: layout}
	}
	return Column{Type: Text}
}

// InferColumns infers one Column per header position from up to sampleSize
// rows. Short rows contribute nothing to the missing positions.
func InferColumns(width int, rows [][]string, sampleSize int) []Column {
	if sampleSize > 0 && len(rows) > sampleSize {
		rows = rows[:sampleSize]
	}
	cols := make([][]string, width)
	for _, row := range rows {
		for i := 0; i < width && i < len(row); i++ {
			cols[i] = append(cols[i], row[i])
		}
	}
	out := make([]Column, width)
	for i := range out {
		out[i] = InferColumn(cols[i])
	}
	return out
}

// FromSQLType maps a declared warehouse column type back to a logical Type.
// Unknown declarations map to Text.
func FromSQLType(decl string) Type {
	d := strings.ToUpper(strings.TrimSpace(decl))
	if d == "TINYINT(1)" {
		return Boolean
	}

	base, params := d, ""
	if i := strings.IndexByte(d, '('); i >= 0 {
		base = strings.TrimSpace(d[:i])
		params = strings.TrimSuffix(d[i+1:], ")")
	}

	switch base {
	case "BIGINT", "INT", "INTEGER", "SMALLINT", "TINYINT", "MEDIUMINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "BYTEINT":
		return Integer
	case "NUMBER", "NUMERIC", "DECIMAL":
		// Snowflake reports integers as NUMBER(38,0).
		if p := strings.Split(params, ","); len(p) == 2 && strings.TrimSpace(p[1]) == "0" {
			return Integer
		}
		return Float
	case "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION":
		return Float
	case "BOOLEAN", "BOOL", "BIT":
		return Boolean
	case "DATE":
		return Date
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME", "DATETIME2", "DATETIMEOFFSET",
		"TIMESTAMP_NTZ", "TIMESTAMP_LTZ", "TIMESTAMP_TZ",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE":
		return Timestamp
	default:
		return Text
	}
}

// nonEmptyTrimmed returns the non-empty, trimmed values.
func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// allMatch reports whether every value satisfies fn.
func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// commonLayout returns the first layout that parses every value.
func commonLayout(vals []string, layouts []string) (string, bool) {
	for _, layout := range layouts {
		ok := true
		for _, v := range vals {
			if _, err := time.Parse(layout, v); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return layout, true
		}
	}
	return "", false
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloat accepts decimal or scientific notation, rejecting NaN and Inf.
func isFloat(s string) bool {
	_, err := parseFloat(s)
	return err == nil
}

// isBoolWord accepts textual booleans. 1/0 are left to the integer check.
func isBoolWord(s string) bool {
	_, ok := boolWords[strings.ToLower(s)]
	return ok
}

var boolWords = map[string]bool{
	"true": true, "false": false,
	"t": true, "f": false,
	"yes": true, "no": false,
	"y": true, "n": false,
}
