// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "loadctl/internal/schema"

// MapType maps a logical column type to a SQLite declared type. SQLite types
// are affinities; the declared names are chosen so that reading them back
// with schema.FromSQLType returns the same logical type.
//
//	integer   -> INTEGER
//	float     -> REAL
//	boolean   -> BOOLEAN (stored as 0/1)
//	date      -> DATE
//	timestamp -> TIMESTAMP
//	text      -> TEXT
func MapType(t schema.Type) string {
	switch t {
	case schema.Integer:
		return "INTEGER"
	case schema.Float:
		return "REAL"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
