//go:build !unix

package csvlog

import "os"

// Without flock only the in-process mutex applies.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
