// Package service implements the application use cases on top of the domain
// entities and store interfaces: account management, dictionary maintenance,
// and the subpackages for learning cycles, training sessions, notifications,
// and authentication.
//
// Services receive their dependencies through constructors, open transactions
// when an operation spans multiple stores, and translate store errors into
// the sentinel errors the API layer maps to HTTP status codes.
package service
