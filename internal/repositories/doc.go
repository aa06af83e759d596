// Package repositories implements durable local storage on SQLite.
//
// Key Implementations:
//   - [KVRepository] : key-scoped values with change subscriptions, the [Store] backing all client state
//   - [StateRepository] : typed, fault-tolerant accessors for each persisted key
//   - [BackupLogRepository] : journal of upload attempts
//
// Every read through [StateRepository] degrades to defaults when a key is absent or malformed.
// Malformed fields are skipped one at a time so one bad playlist never discards the rest.
package repositories
