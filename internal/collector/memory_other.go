//go:build !linux

package collector

func totalMemory() uint64 {
	return 0
}
