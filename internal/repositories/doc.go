// Package repositories implements SQLite persistence for imgmatch.
//
// Key Implementations:
//   - [KVRepository] : named key/value slots; the gallery list is stored under one key as a JSON array
//   - [MatchRunRepository] : history of match submissions implementing [models.Repository]
//
// Repositories accept a [Querier] so the same code runs against a pooled [sql.DB] or a pinned [sql.Conn].
package repositories
