// Package ddl provides MySQL-specific helpers for generating DDL from the
// generic ddl.TableDef model.
//
// Identifiers are quoted with backticks and a dotted FQN is read as
// database.table.
package ddl

import (
	"fmt"
	"strings"

	gddl "loadctl/internal/ddl"
)

// BuildCreateTableSQL returns a MySQL CREATE TABLE statement:
//
//	CREATE TABLE IF NOT EXISTS `db`.`table` (
//	  `col1` TYPE [NOT NULL] [DEFAULT expr],
//	  PRIMARY KEY (`pk1`)
//	) DEFAULT CHARSET=utf8mb4;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	cols, err := gddl.ColumnClauses("mysql ddl", t, QuoteIdent)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n) DEFAULT CHARSET=utf8mb4;",
		QuoteFQN(t.FQN),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildAddColumnsSQL returns one ALTER TABLE statement adding every column.
func BuildAddColumnsSQL(fqn string, cols []gddl.ColumnDef) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("mysql ddl: no columns to add to %s", fqn)
	}
	clauses := make([]string, 0, len(cols))
	for _, c := range cols {
		clause, err := gddl.ColumnClause("mysql ddl", c, QuoteIdent)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "ADD COLUMN "+clause)
	}
	return fmt.Sprintf("ALTER TABLE %s %s", QuoteFQN(fqn), strings.Join(clauses, ", ")), nil
}

// QuoteIdent wraps id in backticks, doubling embedded backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// QuoteFQN quotes each segment of a possibly database-qualified name.
func QuoteFQN(fqn string) string { return gddl.QuoteFQN(fqn, QuoteIdent) }
