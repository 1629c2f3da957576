//go:build unix

package paths

import (
	"os"
	"syscall"
)

// linkCount returns the number of hard links to the file. A regular
// file installed from should have exactly one.
func linkCount(fi os.FileInfo) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Nlink)
	}
	return 1
}
