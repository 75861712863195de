package collector

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/term"
)

// Host is the source of host facts the environment and fingerprint
// collectors read. OSHost reads the running system; tests use fakes.
type Host interface {
	// Getenv returns the value of an environment variable.
	Getenv(key string) string

	// LocalTimezone returns the IANA name of the host zone, or a
	// location name such as "Local" when none is known.
	LocalTimezone() string

	// TerminalSize returns the size of the controlling terminal.
	TerminalSize() (width, height int, ok bool)

	// TotalMemory returns the installed memory in bytes, or 0.
	TotalMemory() uint64

	// Vendor returns the hardware vendor, or "".
	Vendor() string

	// CoreCount returns the number of logical CPUs.
	CoreCount() int

	// Platform returns "GOOS/GOARCH".
	Platform() string
}

// OSHost is the Host of the running process.
type OSHost struct{}

var _ Host = OSHost{}

// Getenv implements Host.
func (OSHost) Getenv(key string) string {
	return os.Getenv(key)
}

// LocalTimezone implements Host. It resolves /etc/localtime below
// zoneinfo/, then /etc/timezone, then falls back to time.Local.
func (OSHost) LocalTimezone() string {
	if target, err := filepath.EvalSymlinks("/etc/localtime"); err == nil {
		if name := zoneFromPath(target); name != "" {
			return name
		}
	}
	if data, err := os.ReadFile("/etc/timezone"); err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}
	return time.Local.String()
}

// TerminalSize implements Host.
func (OSHost) TerminalSize() (int, int, bool) {
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		fd := int(f.Fd()) //nolint:gosec // file descriptors fit in int
		if !term.IsTerminal(fd) {
			continue
		}
		w, h, err := term.GetSize(fd)
		if err == nil {
			return w, h, true
		}
	}
	return 0, 0, false
}

// TotalMemory implements Host.
func (OSHost) TotalMemory() uint64 {
	return totalMemory()
}

// vendorFile exposes the system vendor on Linux.
const vendorFile = "/sys/class/dmi/id/sys_vendor"

// Vendor implements Host.
func (OSHost) Vendor() string {
	data, err := os.ReadFile(vendorFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// CoreCount implements Host.
func (OSHost) CoreCount() int {
	return runtime.NumCPU()
}

// Platform implements Host.
func (OSHost) Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// zoneFromPath returns the part of a zoneinfo path after "zoneinfo/".
func zoneFromPath(p string) string {
	const marker = "zoneinfo/"
	if i := strings.LastIndex(p, marker); i >= 0 {
		return p[i+len(marker):]
	}
	return ""
}
