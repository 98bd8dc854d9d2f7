// Package domain defines the task entity, its status enumeration, and the
// request shapes accepted by each task operation. It has no dependencies on
// storage or transport packages.
package domain
