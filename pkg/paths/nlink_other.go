//go:build !unix

package paths

import "os"

// linkCount reports 1 on platforms without Unix stat semantics; the
// hardlink check is a Unix-specific defense.
func linkCount(fi os.FileInfo) uint64 {
	return 1
}
