//go:build !linux

package collector

const quotaSupported = false

func isMemoryFilesystem(string) (bool, error) {
	return false, nil
}
