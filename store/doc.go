// Package store groups the core.ConversationStore implementations.
//
// Backends live in subpackages:
//
//   - store/memory: volatile process local maps, for tests and demos
//   - store/sqlite: SQLite via database/sql with embedded migrations
//   - store/redis: Redis hashes, lists and sorted sets
//
// Open selects a backend from a configuration kind.
package store
