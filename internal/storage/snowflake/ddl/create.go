// Package ddl provides Snowflake-specific helpers for generating DDL from the
// generic ddl.TableDef model. Identifiers are always double-quoted, which
// makes them case-sensitive in Snowflake.
package ddl

import (
	"fmt"
	"strings"

	gddl "loadctl/internal/ddl"
	"loadctl/internal/schema"
)

// BuildCreateTableSQL returns a Snowflake CREATE TABLE IF NOT EXISTS
// statement. FQNs may carry up to three segments (database.schema.table).
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	cols, err := gddl.ColumnClauses("snowflake ddl", t, QuoteIdent)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		QuoteFQN(t.FQN),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildAddColumnsSQL returns ALTER TABLE ... ADD COLUMN with a
// comma-separated column list.
func BuildAddColumnsSQL(fqn string, cols []gddl.ColumnDef) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("snowflake ddl: no columns to add to %s", fqn)
	}
	clauses := make([]string, 0, len(cols))
	for _, c := range cols {
		clause, err := gddl.ColumnClause("snowflake ddl", c, QuoteIdent)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", QuoteFQN(fqn), strings.Join(clauses, ", ")), nil
}

// QuoteIdent double-quotes id, escaping embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes each segment of a possibly qualified name.
func QuoteFQN(fqn string) string { return gddl.QuoteFQN(fqn, QuoteIdent) }

// MapType maps a logical column type into a Snowflake column type.
func MapType(t schema.Type) string {
	switch t {
	case schema.Integer:
		return "NUMBER(38,0)"
	case schema.Float:
		return "FLOAT"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "TIMESTAMP_NTZ"
	default:
		return "VARCHAR"
	}
}
