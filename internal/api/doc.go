// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the task manager, translating HTTP concerns to task operations and
// task manager errors to status codes.
//
// TaskStream additionally forwards task change events to websocket clients.
package api
