// Package ddl defines a small, backend-agnostic model for SQL DDL and the
// pieces of CREATE/ALTER TABLE rendering that every dialect shares.
//
// Dialect packages (internal/storage/<backend>/ddl) supply identifier quoting
// and the statement envelope (IF NOT EXISTS, OBJECT_ID guards, ...); this
// package validates the model and renders column clauses.
package ddl

import (
	"fmt"
	"strings"
)

// Quoter quotes a single identifier segment.
type Quoter func(string) string

// ColumnClauses validates t and renders one clause per column,
//
//	<quoted name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// followed by a PRIMARY KEY (...) clause when any column is a key column.
// Key columns are always NOT NULL. prefix names the dialect in error messages.
func ColumnClauses(prefix string, t TableDef, quote Quoter) ([]string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return nil, fmt.Errorf("%s: table FQN must not be empty", prefix)
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%s: at least one column is required", prefix)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string

	for _, c := range t.Columns {
		clause, err := ColumnClause(prefix, c, quote)
		if err != nil {
			return nil, fmt.Errorf("%w (table %s)", err, fqn)
		}
		cols = append(cols, clause)
		if c.PrimaryKey {
			pks = append(pks, quote(strings.TrimSpace(c.Name)))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return cols, nil
}

// ColumnClause renders a single column definition.
func ColumnClause(prefix string, c ColumnDef, quote Quoter) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("%s: column with empty name", prefix)
	}
	typ := strings.TrimSpace(c.SQLType)
	if typ == "" {
		return "", fmt.Errorf("%s: column %s missing SQLType", prefix, name)
	}

	var sb strings.Builder
	sb.WriteString(quote(name))
	sb.WriteByte(' ')
	sb.WriteString(typ)
	if !c.Nullable || c.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	if def := strings.TrimSpace(c.Default); def != "" {
		// Default is emitted as a raw SQL expression.
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	return sb.String(), nil
}

// QuoteFQN quotes each dot-separated segment of fqn with quote, skipping
// empty segments:
//
//	QuoteFQN("public.orders", pgQuote) => "public"."orders"
func QuoteFQN(fqn string, quote Quoter) string {
	parts := SplitFQN(fqn)
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

// SplitFQN splits "schema.table" into its trimmed, non-empty segments.
func SplitFQN(fqn string) []string {
	raw := strings.Split(fqn, ".")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Qualify prefixes table with schema unless table is already qualified or
// schema is empty.
func Qualify(schema, table string) string {
	if schema == "" || strings.Contains(table, ".") {
		return table
	}
	return schema + "." + table
}
