package netutil

import (
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"strings"
)

// XenOUIPrefix is the vendor prefix shared by every generated guest MAC address.
var XenOUIPrefix = []byte{0x00, 0x16, 0x3e}

// GenerateMAC returns 00:16:3E followed by three random octets, each below 0x80.
func GenerateMAC() (net.HardwareAddr, error) {
	return generateMAC(rand.Reader)
}

func generateMAC(r io.Reader) (net.HardwareAddr, error) {
	suffix := make([]byte, 3)
	if _, err := io.ReadFull(r, suffix); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	mac := make(net.HardwareAddr, 0, 6)
	mac = append(mac, XenOUIPrefix...)
	for _, b := range suffix {
		mac = append(mac, b&0x7f)
	}
	return mac, nil
}

// FormatMAC renders mac as colon separated upper-case octets.
func FormatMAC(mac net.HardwareAddr) string {
	return strings.ToUpper(mac.String())
}
