// Package all registers every built-in blob backend with the blob factory.
// Import it for side effects:
//
//	import _ "loadctl/internal/blob/all"
//
// The "local" kind is always available from the blob package itself.
package all

import (
	_ "loadctl/internal/blob/azure"
	_ "loadctl/internal/blob/gcs"
)
