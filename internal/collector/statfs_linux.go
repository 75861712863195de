//go:build linux

package collector

import "golang.org/x/sys/unix"

// quotaSupported reports whether QuotaProbe can inspect filesystems here.
const quotaSupported = true

// isMemoryFilesystem reports whether dir is on tmpfs or ramfs.
func isMemoryFilesystem(dir string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return false, err
	}
	switch uint32(st.Type) { //nolint:gosec // magic numbers fit in 32 bits
	case unix.TMPFS_MAGIC, unix.RAMFS_MAGIC:
		return true, nil
	}
	return false, nil
}
