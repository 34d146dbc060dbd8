// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import "loadctl/internal/schema"

// MapType maps a logical column type into a SQL Server column type. Text
// falls back to NVARCHAR(MAX).
func MapType(t schema.Type) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "FLOAT"
	case schema.Boolean:
		return "BIT"
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}
