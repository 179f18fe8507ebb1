// Package entity defines the canonical identities of a game: players, public
// companies and private companies.
//
// Entities reference each other only by identifier. The aggregate state owns
// every entity for the life of a game and resolves identifiers on demand, so a
// game snapshot is a plain value without pointer cycles.
package entity
