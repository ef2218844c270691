package catalog

import "embed"

// builtinFS embeds the default signature definition files, covering the
// container, compression, executable, and filesystem formats scanned most
// often.
//
//go:embed magic/*.magic
var builtinFS embed.FS
