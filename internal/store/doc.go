// Package store defines the persistence interfaces for users, words,
// learning cycles, notifications, and activity records, plus the sentinel
// errors their implementations return. Services depend on these interfaces
// rather than on a concrete database.
package store
