// Package host answers questions about the machine ksxen runs on.
package host

import (
	"os"

	"github.com/terabiome/ksxen/pkg/netutil"
)

// System is the host the process is running on.
type System struct{}

// IsPrivileged reports whether the effective user is root.
func (System) IsPrivileged() bool {
	return os.Geteuid() == 0
}

// BridgeAddress returns the first IPv4 address assigned to the named interface.
func (System) BridgeAddress(name string) (string, error) {
	ip, err := netutil.BridgeIPv4(name)
	if err != nil {
		return "", err
	}
	return ip.String(), nil
}
