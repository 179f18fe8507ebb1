// Package integrity hashes and signs the action journal.
//
// Each stored action carries a content hash and a chain hash linking it to the
// previous action of the same game, so a replay can detect reordered, dropped
// or edited entries. When a keyring is configured the chain hash is also
// signed with a per-game key.
package integrity
