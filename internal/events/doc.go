// Package events provides the event types and interfaces that decouple
// request-handling services from background task creation.
//
// Services emit a TaskRequestEvent when work should happen outside the
// request path (for example enriching a freshly added word with generated
// content). Handlers registered on an EventEmitter turn those events into
// persisted tasks. Neither side imports the other, which keeps the service
// and task packages free of circular dependencies.
package events
