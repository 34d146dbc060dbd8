package ddl

import "loadctl/internal/schema"

// MapType maps a logical column type into a Postgres SQL type.
//
//	integer   -> BIGINT
//	float     -> DOUBLE PRECISION
//	boolean   -> BOOLEAN
//	date      -> DATE
//	timestamp -> TIMESTAMP
//	text      -> TEXT
func MapType(t schema.Type) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE PRECISION"
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
