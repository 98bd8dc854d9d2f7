// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// The package also owns the data-access error vocabulary: every TaskStore
// implementation reports infrastructure faults as ErrDBOperation and data
// faults (no matching row, unmappable row) as ErrDBWarning.
package store
