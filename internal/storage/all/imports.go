// Package all wires every built-in warehouse backend into the storage factory.
//
// It exists only for side effects: importing it runs each backend's init,
// which registers a factory with the storage package. After the import the
// following kinds are available to storage.New:
//
//   - "mssql"     (loadctl/internal/storage/mssql)
//   - "mysql"     (loadctl/internal/storage/mysql)
//   - "postgres"  (loadctl/internal/storage/postgres)
//   - "snowflake" (loadctl/internal/storage/snowflake)
//   - "sqlite"    (loadctl/internal/storage/sqlite)
//
// A binary that needs only some backends can import those packages directly.
package all

import (
	_ "loadctl/internal/storage/mssql"
	_ "loadctl/internal/storage/mysql"
	_ "loadctl/internal/storage/postgres"
	_ "loadctl/internal/storage/snowflake"
	_ "loadctl/internal/storage/sqlite"
)
