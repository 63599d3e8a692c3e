package preflight

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that path is a directory bdremux can read,
// write and traverse. The detail of a passing check reports the free space,
// since remux outputs and temp files are disc-sized.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return Result{Name: name, Detail: fmt.Sprintf("%s does not exist", path)}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s: stat: %v", path, err)}
	case !info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s is not a directory", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s: insufficient permissions: %v", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, freeSpace(path))}
}

func freeSpace(path string) string {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return "read/write ok"
	}
	return humanize.IBytes(st.Bavail*uint64(st.Bsize)) + " free"
}
