// Package ddl provides MSSQL-specific helpers for generating DDL from the
// generic ddl.TableDef model.
//
// The builder here:
//   - Uses SQL Server-style identifier quoting: [schema].[table], [col].
//   - Wraps CREATE TABLE in an IF OBJECT_ID(...) IS NULL guard since T-SQL
//     does not support CREATE TABLE IF NOT EXISTS.
//   - Renders PRIMARY KEY constraints as a separate clause.
package ddl

import (
	"fmt"
	"strings"

	gddl "loadctl/internal/ddl"
)

// BuildCreateTableSQL returns a T-SQL script that creates a table matching
// the provided definition if it does not already exist:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col1] TYPE [NOT NULL] [DEFAULT expr],
//	    [col2] TYPE,
//	    PRIMARY KEY ([pk1], [pk2])
//	  );
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	cols, err := gddl.ColumnClauses("mssql ddl", t, QuoteIdent)
	if err != nil {
		return "", err
	}
	fqnQuoted := QuoteFQN(t.FQN)

	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		strings.ReplaceAll(fqnQuoted, "'", "''"),
		fqnQuoted,
		strings.Join(cols, ",\n    "),
	), nil
}

// BuildAddColumnsSQL returns one ALTER TABLE ... ADD statement for all cols.
// T-SQL takes a comma-separated column list after a single ADD.
func BuildAddColumnsSQL(fqn string, cols []gddl.ColumnDef) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("mssql ddl: no columns to add to %s", fqn)
	}
	clauses := make([]string, 0, len(cols))
	for _, c := range cols {
		clause, err := gddl.ColumnClause("mssql ddl", c, QuoteIdent)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s", QuoteFQN(fqn), strings.Join(clauses, ", ")), nil
}

// QuoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QuoteFQN quotes a possibly schema-qualified table name, e.g.:
//
//	"dbo.Users"   -> [dbo].[Users]
//	"Users"       -> [Users]
func QuoteFQN(fqn string) string { return gddl.QuoteFQN(fqn, QuoteIdent) }
