package ddl

import "loadctl/internal/schema"

// MapType maps a logical column type into a MySQL column type. Booleans use
// TINYINT(1), which is how MySQL spells BOOLEAN.
func MapType(t schema.Type) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE"
	case schema.Boolean:
		return "TINYINT(1)"
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}
