// Package definition loads game definitions: the companies, certificates,
// stock chart, phases, trains, start packet and rules of one 18xx title.
//
// Definitions are YAML documents. The default 1830-style title ships embedded
// and is returned by Default; other titles are read with Load.
package definition
