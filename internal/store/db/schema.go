// Package db embeds the sqlite schema for the persistent lookup caches.
package db

import _ "embed"

//go:embed schema.sql
var Schema string
