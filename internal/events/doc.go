// Package events carries task change notifications from the service layer to
// interested components.
//
// The task manager emits a TaskEvent after every successful write. Handlers,
// such as the websocket task stream, register with an EventEmitter and receive
// every event without the manager knowing about them.
package events
