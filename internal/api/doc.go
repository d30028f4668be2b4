// Package api handles incoming HTTP requests, request validation, and
// response formatting. It acts as an adapter between external clients and
// the internal application services, translating HTTP concerns to business
// operations. Errors are mapped to status codes centrally so internal
// details never reach a response body.
package api
