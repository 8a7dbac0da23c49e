package appfs

import "embed"

// FS holds non-Go assets compiled into the binary: goose migrations,
// email templates and the common-passwords list.
//
//go:embed migrations assets
var FS embed.FS
