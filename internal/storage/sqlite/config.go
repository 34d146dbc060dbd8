package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:loadctl.db?_pragma=busy_timeout(5000)"
	//   "loadctl.db"
	DSN string

	// Schema qualifies unqualified table names ("main", or an attached
	// database name). Empty means the default database.
	Schema string
}
