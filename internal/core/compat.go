package core

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// OSReleasePath is the os-release file consulted by ReadOSRelease.
var OSReleasePath = "/etc/os-release"

// KernelRelease returns the running kernel release, as `uname -r` prints it.
func KernelRelease() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(uts.Release[:]), nil
}

// OSRelease holds the identifying fields of /etc/os-release.
type OSRelease struct {
	ID         string
	IDLike     []string
	PrettyName string
}

// ReadOSRelease parses OSReleasePath. A missing file yields an empty value.
func ReadOSRelease() (OSRelease, error) {
	f, err := os.Open(OSReleasePath)
	if os.IsNotExist(err) {
		return OSRelease{}, nil
	}
	if err != nil {
		return OSRelease{}, err
	}
	defer f.Close()

	var rel OSRelease
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		val = strings.Trim(val, `"'`)
		switch key {
		case "ID":
			rel.ID = val
		case "ID_LIKE":
			rel.IDLike = strings.Fields(val)
		case "PRETTY_NAME":
			rel.PrettyName = val
		}
	}
	return rel, scanner.Err()
}

// IsCatOS reports whether the system identifies as CatOS.
func IsCatOS() bool {
	rel, err := ReadOSRelease()
	return err == nil && rel.ID == "catos"
}

// IsArchFamily reports whether the system is Arch or an Arch derivative.
func (r OSRelease) IsArchFamily() bool {
	if r.ID == "arch" {
		return true
	}
	for _, like := range r.IDLike {
		if like == "arch" {
			return true
		}
	}
	return false
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
