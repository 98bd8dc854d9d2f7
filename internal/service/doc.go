// Package service provides the task manager, the domain layer between HTTP
// handling and data access.
package service
