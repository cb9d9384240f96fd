package appfs

import "embed"

// FS holds the local storage migrations, one directory per SQL dialect.
//
//go:embed migrations
var FS embed.FS
