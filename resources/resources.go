// Package resources holds the files embedded into the binary.
package resources

import "embed"

// Migrations holds the SQL schema migrations, use with the iofs source of
// golang-migrate on the "migrations" directory.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Locales holds one gettext catalog per language at locales/<lang>/default.po.
//
//go:embed locales
var Locales embed.FS

// APIDoc is the markdown documentation served on the index.
//
//go:embed api.md
var APIDoc []byte
