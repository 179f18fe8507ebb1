// Package migrations embeds the SQL migration scripts of the SQLite store.
package migrations
