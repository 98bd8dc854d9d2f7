// Package testdb provides database configurations for tests.
//
// SQLiteConfig creates a throwaway SQLite database with the task table, so
// the storage layer is exercised on every test run without external
// services. PostgresConfig migrates and empties the PostgreSQL database named
// by DATABASE_URL and skips the test when that variable is not set.
// ForEachBackend runs a test body once per available backend.
//
// # Basic Usage
//
//	func TestSomething(t *testing.T) {
//		testdb.ForEachBackend(t, func(t *testing.T, cfg config.DatabaseConfig) {
//			engine := postgres.NewEngine(cfg, nil)
//			t.Cleanup(func() { _ = engine.Close() })
//			// ...
//		})
//	}
package testdb
