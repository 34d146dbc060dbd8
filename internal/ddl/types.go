package ddl

// ColumnDef describes a single column in a table definition. Fields are
// database-agnostic:
//   - Name: column name, unquoted; quoting happens at render time
//   - SQLType: target SQL type already mapped for the dialect (BIGINT, TEXT, ...)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name and an ordered list of columns. FQN is in
// dotted form ("schema.table" or "table") and is quoted per segment by
// renderers.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
