// Package ddl contains Postgres-specific helpers for generating DDL.
//
// It builds CREATE TABLE and ALTER TABLE statements for a generic
// ddl.TableDef using Postgres quoting (double-quoted identifiers, escaped
// quotes).
package ddl

import (
	"fmt"
	"sort"
	"strings"

	gddl "loadctl/internal/ddl"
)

// BuildCreateTableSQL builds a deterministic Postgres CREATE TABLE statement
// for the given table definition.
//
// Rules:
//   - t.FQN must be non-empty; each column needs a Name and SQLType.
//   - Primary-key columns are always NOT NULL, and the PRIMARY KEY clause
//     lists them sorted alphabetically for determinism.
//   - The statement uses CREATE TABLE IF NOT EXISTS.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	plain := t
	plain.Columns = make([]gddl.ColumnDef, len(t.Columns))
	var pks []string
	for i, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(strings.TrimSpace(c.Name)))
			c.PrimaryKey = false
			c.Nullable = false
		}
		plain.Columns[i] = c
	}

	cols, err := gddl.ColumnClauses("postgres ddl", plain, QuoteIdent)
	if err != nil {
		return "", err
	}
	if len(pks) > 0 {
		sort.Strings(pks)
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		QuoteFQN(t.FQN),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildAddColumnsSQL returns one ALTER TABLE statement adding every column:
//
//	ALTER TABLE "public"."orders" ADD COLUMN "a" TEXT, ADD COLUMN "b" BIGINT
func BuildAddColumnsSQL(fqn string, cols []gddl.ColumnDef) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("postgres ddl: no columns to add to %s", fqn)
	}
	adds := make([]string, 0, len(cols))
	for _, c := range cols {
		clause, err := gddl.ColumnClause("postgres ddl", c, QuoteIdent)
		if err != nil {
			return "", err
		}
		adds = append(adds, "ADD COLUMN "+clause)
	}
	return fmt.Sprintf("ALTER TABLE %s %s", QuoteFQN(fqn), strings.Join(adds, ", ")), nil
}

// QuoteIdent quotes a single identifier segment for Postgres, e.g.:
//
//	QuoteIdent(`order_id`)   => `"order_id"`
//	QuoteIdent(`weird"name`) => `"weird""name"`
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes a possibly schema-qualified name like "public.users" to
// `"public"."users"`. Empty segments are ignored.
func QuoteFQN(f string) string { return gddl.QuoteFQN(f, QuoteIdent) }
