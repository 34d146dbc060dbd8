package storage

import (
	"context"
	"fmt"
	"strings"
)

// Ensured describes the destination table after EnsureTable.
type Ensured struct {
	// Created is true when the table did not exist and was created.
	Created bool
	// Added lists columns appended to an existing table.
	Added []string
	// Types maps every wanted column name to the logical type it has in the
	// table, read back from the declared type for pre-existing columns.
	Types map[string]Field
}

// EnsureTable makes table hold every column in want. A missing table is
// created with want's types. For an existing table, columns absent from it
// (compared case-insensitively) are appended with want's types; existing
// columns keep their declared types. Columns are never dropped or altered.
func EnsureTable(ctx context.Context, repo Repository, table string, want []Field) (Ensured, error) {
	res := Ensured{Types: make(map[string]Field, len(want))}

	exists, err := repo.TableExists(ctx, table)
	if err != nil {
		return res, fmt.Errorf("check table %s: %w", table, err)
	}
	if !exists {
		if err := repo.CreateTable(ctx, table, want); err != nil {
			return res, fmt.Errorf("create table %s: %w", table, err)
		}
		res.Created = true
		for _, f := range want {
			res.Types[f.Name] = f
		}
		return res, nil
	}

	have, err := repo.Columns(ctx, table)
	if err != nil {
		return res, fmt.Errorf("read columns of %s: %w", table, err)
	}
	byName := make(map[string]Field, len(have))
	for _, f := range have {
		byName[strings.ToLower(f.Name)] = f
	}

	var missing []Field
	for _, f := range want {
		if got, ok := byName[strings.ToLower(f.Name)]; ok {
			res.Types[f.Name] = Field{Name: got.Name, Type: got.Type}
			continue
		}
		missing = append(missing, f)
		res.Types[f.Name] = f
	}
	if len(missing) == 0 {
		return res, nil
	}
	if err := repo.AddColumns(ctx, table, missing); err != nil {
		return res, fmt.Errorf("add columns to %s: %w", table, err)
	}
	for _, f := range missing {
		res.Added = append(res.Added, f.Name)
	}
	return res, nil
}
