// Package table runs games behind serialized command queues.
//
// A Table owns one engine.Game and applies every read and every action on a
// single goroutine, so callers on different connections never interleave
// inside the engine. A Registry creates tables, persists their journals and
// restores them from storage by rebuilding the definition and replaying the
// recorded actions.
package table
