// Package all is a meta-package that imports every store implementation
// so the registry is populated consistently in binaries and tests.
package all

import (
	_ "github.com/uvensys/anchorauth/lib/store/bbolt"
	_ "github.com/uvensys/anchorauth/lib/store/memory"
	_ "github.com/uvensys/anchorauth/lib/store/valkey"
)
