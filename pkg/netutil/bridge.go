package netutil

import (
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

var (
	ErrBridgeNameRequired = errors.New("bridge name is required")
	ErrNoIPv4Address      = errors.New("no IPv4 address assigned")
)

// BridgeIPv4 returns the first IPv4 address assigned to the named interface.
func BridgeIPv4(name string) (net.IP, error) {
	if name == "" {
		return nil, ErrBridgeNameRequired
	}

	link, err := netlink.LinkByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up link %s: %w", name, err)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses of %s: %w", name, err)
	}

	for _, addr := range addrs {
		if addr.IPNet != nil && addr.IP.To4() != nil {
			return addr.IP, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoIPv4Address, name)
}
