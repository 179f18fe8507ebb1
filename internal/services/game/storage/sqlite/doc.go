// Package sqlite implements the game persistence contracts on SQLite.
//
// Games, the hash-chained action journal and state snapshots live in one
// database file. Schema changes are embedded migrations applied on Open.
package sqlite
