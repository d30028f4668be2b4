// Package domain holds the core entities of the vocabulary trainer: users,
// words, the per-user word state that spaced repetition operates on,
// learning cycles, notifications, and activity records. Entities validate
// themselves; nothing here touches storage or transport.
package domain
