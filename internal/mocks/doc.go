// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of interfaces used throughout
// the application, so test packages share one mock per interface instead of
// redefining inline fakes. Each mock exposes function fields to override
// individual methods and sensible defaults for the rest.
//
// Usage:
//
//	import "github.com/maximus-ms/enbot/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    jwtService := &mocks.MockJWTService{
//	        Token: "mocked-token",
//	    }
//
//	    // Use the mock in your test...
//	}
//
// When adding a new mock to this package, name the file after the interface
// being mocked and implement the mock struct with function fields for each
// interface method.
package mocks
