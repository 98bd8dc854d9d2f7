// Package postgres provides the database engine and the PostgreSQL
// implementation of store.TaskStore.
//
// Engine owns the connection pool and hands out transactional scopes that are
// always rolled back unless committed. TaskDAO issues one statement per
// operation inside such a scope and maps rows to domain types once the scope
// has closed.
package postgres
