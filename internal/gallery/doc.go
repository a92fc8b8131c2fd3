// Package gallery persists the ordered list of gallery image references.
//
// A [PersistedStore] keeps the list as one JSON array under a single storage key in a [Backend]. Every
// [PersistedStore.Append] is a full read-modify-write of the array; insertion order is preserved and
// duplicates are allowed.
//
// # External Changes
//
// Several processes may open the same backend. A backend's Watch stream fires when another execution
// context changes the data, and the store reloads the list and hands it to every subscriber. Writes made
// through the same backend never fire, so a local append is visible only through its return value.
//
// Backends:
//   - [MemoryBackend] : in-process map; [MemoryBackend.WriteExternal] simulates another context
//   - [SQLiteBackend] : kv_slots row on a pinned connection, watched through PRAGMA data_version
//
// Two processes appending at the same time can lose an update (last writer wins).
package gallery
